package spotify

import (
	"context"
	"fmt"
	"io"

	"github.com/samber/lo"
	"github.com/zmb3/spotify/v2"
)

// MaxTracksPerRequest is the most track IDs Spotify accepts in one add-items call.
const MaxTracksPerRequest = 100

const playlistURLPrefix = "https://open.spotify.com/playlist/"

// CreatePlaylist creates a new private, non-collaborative playlist on the user's account.
func (c *Client) CreatePlaylist(ctx context.Context, userID, name, description string) (*Playlist, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	span := startSpan(ctx, "spotify.create_playlist", "Create playlist")
	span.SetTag("playlist_name", name)
	playlist, err := c.api.CreatePlaylistForUser(span.Context(), userID, name, description, false, false)
	finishSpan(span, err)
	if err != nil {
		return nil, fmt.Errorf("creating playlist %q: %w", name, err)
	}

	url := playlist.ExternalURLs["spotify"]
	if url == "" {
		url = playlistURLPrefix + playlist.ID.String()
	}

	return &Playlist{
		ID:   playlist.ID.String(),
		Name: playlist.Name,
		URL:  url,
	}, nil
}

// AddTracksToPlaylist adds tracks to a playlist, handling batching for large sets.
// Spotify allows max 100 tracks per request; order is preserved within and across batches.
func (c *Client) AddTracksToPlaylist(ctx context.Context, playlistID string, trackIDs []string) error {
	if len(trackIDs) == 0 {
		return nil
	}

	ids := lo.Map(trackIDs, func(id string, _ int) spotify.ID {
		return spotify.ID(id)
	})

	start := 0
	for _, batch := range lo.Chunk(ids, MaxTracksPerRequest) {
		end := start + len(batch)
		if err := c.addBatch(ctx, playlistID, batch); err != nil {
			return fmt.Errorf("adding tracks (batch %d-%d): %w", start+1, end, err)
		}
		start = end
	}

	return nil
}

func (c *Client) addBatch(ctx context.Context, playlistID string, batch []spotify.ID) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	span := startSpan(ctx, "spotify.add_tracks", "Add tracks to playlist")
	span.SetData("batch_size", len(batch))
	_, err := c.api.AddTracksToPlaylist(span.Context(), spotify.ID(playlistID), batch...)
	finishSpan(span, err)
	return err
}

// SetPlaylistCover uploads a JPEG image as the playlist's cover.
func (c *Client) SetPlaylistCover(ctx context.Context, playlistID string, img io.Reader) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	span := startSpan(ctx, "spotify.set_playlist_image", "Upload playlist cover")
	err := c.api.SetPlaylistImage(span.Context(), spotify.ID(playlistID), img)
	finishSpan(span, err)
	if err != nil {
		return fmt.Errorf("uploading playlist cover: %w", err)
	}
	return nil
}
