package spotify

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/zmb3/spotify/v2"
)

// PageSize is the number of saved tracks requested per page (the API maximum).
const PageSize = 50

// SavedTracks retrieves every track in the user's library, in library order.
//
// The first page is always fetched; its reported total then bounds the remaining
// offset-based requests. Any error aborts the fetch and no partial result is returned.
func (c *Client) SavedTracks(ctx context.Context) ([]Track, error) {
	page, err := c.savedTracksPage(ctx, 0)
	if err != nil {
		return nil, err
	}

	total := int(page.Total)
	tracks := make([]Track, 0, total)

	for offset := 0; ; {
		tracks = append(tracks, convertPage(page.Tracks)...)
		c.log.Debugf("Fetched %d/%d saved tracks", len(tracks), total)

		offset += PageSize
		if offset >= total {
			break
		}

		page, err = c.savedTracksPage(ctx, offset)
		if err != nil {
			return nil, err
		}
	}

	c.log.Infof("Fetched %d saved tracks", len(tracks))
	return tracks, nil
}

// savedTracksPage fetches one page of the user's library at offset.
func (c *Client) savedTracksPage(ctx context.Context, offset int) (*spotify.SavedTrackPage, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	span := startSpan(ctx, "spotify.saved_tracks", "Get saved tracks page")
	span.SetData("offset", offset)
	page, err := c.api.CurrentUsersTracks(span.Context(), spotify.Limit(PageSize), spotify.Offset(offset))
	finishSpan(span, err)
	if err != nil {
		return nil, fmt.Errorf("fetching saved tracks (offset %d): %w", offset, err)
	}
	return page, nil
}

// convertPage converts the playable items of a page, skipping entries without a track ID
// (local files and tracks removed from the catalogue).
func convertPage(items []spotify.SavedTrack) []Track {
	playable := lo.Filter(items, func(saved spotify.SavedTrack, _ int) bool {
		return saved.ID != ""
	})
	return lo.Map(playable, func(saved spotify.SavedTrack, _ int) Track {
		return convertTrack(saved)
	})
}

// convertTrack converts a Spotify SavedTrack to a Track.
func convertTrack(saved spotify.SavedTrack) Track {
	artists := make([]Artist, len(saved.Artists))
	for i, a := range saved.Artists {
		artists[i] = Artist{ID: a.ID.String(), Name: a.Name}
	}

	return Track{
		ID:      saved.ID.String(),
		Name:    saved.Name,
		Artists: artists,
	}
}
