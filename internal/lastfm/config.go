// Package lastfm fetches artist tags from the Last.fm API.
// It is used as a secondary genre source for artists Spotify has no genres for.
package lastfm

import "errors"

// DefaultMaxTags is how many of an artist's top tags are treated as genres.
const DefaultMaxTags = 3

// ErrMissingAPIKey is returned when no Last.fm API key is configured.
var ErrMissingAPIKey = errors.New("missing LASTFM_API_KEY")

// Config holds Last.fm API configuration.
type Config struct {
	APIKey  string
	MaxTags int // 0 means DefaultMaxTags
}

// Validate reports whether the configuration can be used to build a client.
func (c *Config) Validate() error {
	if c == nil || c.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

func (c *Config) maxTags() int {
	if c.MaxTags <= 0 {
		return DefaultMaxTags
	}
	return c.MaxTags
}
