package genres

import (
	"context"
	"fmt"

	"github.com/justestif/go-spotify-genre-organizer/internal/spotify"
)

// ArtistLookup resolves the genre tags of an artist.
type ArtistLookup interface {
	ArtistGenres(ctx context.Context, artist spotify.Artist) ([]string, error)
}

// LookupFunc adapts a function to ArtistLookup.
type LookupFunc func(ctx context.Context, artist spotify.Artist) ([]string, error)

// ArtistGenres calls f.
func (f LookupFunc) ArtistGenres(ctx context.Context, artist spotify.Artist) ([]string, error) {
	return f(ctx, artist)
}

// KeyFunc selects the value recorded for a track.
type KeyFunc func(spotify.Track) string

var (
	// ByID records track IDs, as needed for playlist uploads.
	ByID KeyFunc = func(t spotify.Track) string { return t.ID }

	// ByName records track names, as shown to users.
	ByName KeyFunc = func(t spotify.Track) string { return t.Name }
)

// Classify groups tracks by the genres of their primary artist.
//
// Only the first credited artist is consulted. Each of its tags receives the track's key,
// so a track lands in every genre its artist carries. Tracks whose artist has no tags, or
// that have no artists at all, appear in no entry. A lookup error aborts classification.
func Classify(ctx context.Context, tracks []spotify.Track, lookup ArtistLookup, key KeyFunc) (*Map, error) {
	m := NewMap()

	for _, track := range tracks {
		artist, ok := track.PrimaryArtist()
		if !ok {
			continue
		}

		tags, err := lookup.ArtistGenres(ctx, artist)
		if err != nil {
			return nil, fmt.Errorf("classifying track %s: %w", track.ID, err)
		}

		for _, tag := range tags {
			m.Add(tag, key(track))
		}
	}

	return m, nil
}
