package spotify

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"
)

// Artist fetches an artist's profile, including its genre tags.
func (c *Client) Artist(ctx context.Context, id string) (*ArtistInfo, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	span := startSpan(ctx, "spotify.get_artist", "Get artist from Spotify API")
	span.SetTag("artist_id", id)
	artist, err := c.api.GetArtist(span.Context(), spotify.ID(id))
	finishSpan(span, err)
	if err != nil {
		return nil, fmt.Errorf("fetching artist %s: %w", id, err)
	}

	genres := artist.Genres
	if genres == nil {
		genres = []string{}
	}

	return &ArtistInfo{
		ID:     artist.ID.String(),
		Name:   artist.Name,
		Genres: genres,
	}, nil
}

// ArtistGenres returns the genre tags of artist. Every call is a remote lookup.
func (c *Client) ArtistGenres(ctx context.Context, artist Artist) ([]string, error) {
	info, err := c.Artist(ctx, artist.ID)
	if err != nil {
		return nil, err
	}
	return info.Genres, nil
}
