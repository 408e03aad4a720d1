package genres

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/justestif/go-spotify-genre-organizer/internal/spotify"
)

// CachingLookup memoizes another lookup by artist ID.
// It is meant to live for a single request and is not safe for concurrent use.
type CachingLookup struct {
	next  ArtistLookup
	cache map[string][]string
}

// NewCachingLookup wraps next with a per-artist cache.
func NewCachingLookup(next ArtistLookup) *CachingLookup {
	return &CachingLookup{
		next:  next,
		cache: make(map[string][]string),
	}
}

// ArtistGenres returns cached tags for the artist or resolves them through the wrapped lookup.
// Errors are not cached.
func (c *CachingLookup) ArtistGenres(ctx context.Context, artist spotify.Artist) ([]string, error) {
	if tags, ok := c.cache[artist.ID]; ok {
		return tags, nil
	}

	tags, err := c.next.ArtistGenres(ctx, artist)
	if err != nil {
		return nil, err
	}

	c.cache[artist.ID] = tags
	return tags, nil
}

// TagSource supplies free-form tags for an artist by name.
type TagSource interface {
	ArtistTags(ctx context.Context, artist string) ([]string, error)
}

// FallbackLookup consults a secondary tag source when the primary lookup reports no genres.
// Fallback failures are logged and treated as "no genres" so they never fail a request.
type FallbackLookup struct {
	primary  ArtistLookup
	fallback TagSource
	log      logrus.FieldLogger
}

// NewFallbackLookup combines primary with fallback.
func NewFallbackLookup(primary ArtistLookup, fallback TagSource, log logrus.FieldLogger) *FallbackLookup {
	return &FallbackLookup{
		primary:  primary,
		fallback: fallback,
		log:      log,
	}
}

// ArtistGenres returns the primary genres, or lower-cased fallback tags if there are none.
func (f *FallbackLookup) ArtistGenres(ctx context.Context, artist spotify.Artist) ([]string, error) {
	tags, err := f.primary.ArtistGenres(ctx, artist)
	if err != nil {
		return nil, err
	}
	if len(tags) > 0 || artist.Name == "" {
		return tags, nil
	}

	extra, err := f.fallback.ArtistTags(ctx, artist.Name)
	if err != nil {
		f.log.WithError(err).WithField("artist", artist.Name).Warn("Fallback genre lookup failed")
		return tags, nil
	}

	genres := make([]string, 0, len(extra))
	for _, tag := range extra {
		if tag = strings.ToLower(strings.TrimSpace(tag)); tag != "" {
			genres = append(genres, tag)
		}
	}
	return genres, nil
}
