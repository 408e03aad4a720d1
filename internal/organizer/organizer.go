// Package organizer runs the liked-songs workflow: fetch, classify by genre, and publish playlists.
package organizer

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/justestif/go-spotify-genre-organizer/internal/genres"
	"github.com/justestif/go-spotify-genre-organizer/internal/logging"
	"github.com/justestif/go-spotify-genre-organizer/internal/playlists"
	"github.com/justestif/go-spotify-genre-organizer/internal/spotify"
)

// Client is the authenticated Spotify access one request works with.
// *spotify.Client satisfies it.
type Client interface {
	SavedTracks(ctx context.Context) ([]spotify.Track, error)
	ArtistGenres(ctx context.Context, artist spotify.Artist) ([]string, error)
	UserID(ctx context.Context) (string, error)
	playlists.PlaylistAPI
	playlists.CoverUploader
}

var _ Client = (*spotify.Client)(nil)

// Organizer holds the process-wide collaborators of the workflow.
// The Spotify client is passed per call, so one Organizer serves every user.
type Organizer struct {
	fallback genres.TagSource
	covers   playlists.CoverGenerator
	recorder playlists.Recorder
	logger   logrus.FieldLogger
	log      *logrus.Entry
}

// Option configures an Organizer.
type Option func(*Organizer)

// WithFallback resolves artists without Spotify genres through src.
func WithFallback(src genres.TagSource) Option {
	return func(o *Organizer) {
		o.fallback = src
	}
}

// WithCovers uploads generated cover art for every published playlist.
func WithCovers(gen playlists.CoverGenerator) Option {
	return func(o *Organizer) {
		o.covers = gen
	}
}

// WithRecorder stores publish runs.
func WithRecorder(r playlists.Recorder) Option {
	return func(o *Organizer) {
		o.recorder = r
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *Organizer) {
		if l != nil {
			o.logger = l
		}
	}
}

// New returns an Organizer.
func New(opts ...Option) *Organizer {
	o := &Organizer{logger: logging.Discard()}
	for _, opt := range opts {
		opt(o)
	}
	o.log = logging.Component(o.logger, "organizer")
	return o
}

// Classify groups the user's saved tracks by genre, recording each track with key.
func (o *Organizer) Classify(ctx context.Context, client Client, key genres.KeyFunc) (*genres.Map, error) {
	tracks, err := client.SavedTracks(ctx)
	if err != nil {
		return nil, err
	}

	m, err := genres.Classify(ctx, tracks, o.lookup(client), key)
	if err != nil {
		return nil, err
	}

	o.log.WithField("tracks", len(tracks)).WithField("genres", m.Len()).Info("Classified liked songs")
	return m, nil
}

// Publish classifies the user's saved tracks by ID and creates one playlist per genre.
// On failure the returned playlists are those that were created before it.
func (o *Organizer) Publish(ctx context.Context, client Client) ([]playlists.Created, error) {
	m, err := o.Classify(ctx, client, genres.ByID)
	if err != nil {
		return nil, err
	}

	userID, err := client.UserID(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving user: %w", err)
	}

	opts := []playlists.Option{playlists.WithLogger(o.logger)}
	if o.covers != nil {
		opts = append(opts, playlists.WithCovers(o.covers, client))
	}
	if o.recorder != nil {
		opts = append(opts, playlists.WithRecorder(o.recorder))
	}

	return playlists.NewPublisher(client, opts...).Publish(ctx, userID, m)
}

// lookup builds the request-scoped artist lookup: cached, with the optional fallback underneath.
func (o *Organizer) lookup(client Client) genres.ArtistLookup {
	var lookup genres.ArtistLookup = client
	if o.fallback != nil {
		lookup = genres.NewFallbackLookup(lookup, o.fallback, o.log)
	}
	return genres.NewCachingLookup(lookup)
}
