// Package playlists materializes a genre map as one private Spotify playlist per genre.
package playlists

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/justestif/go-spotify-genre-organizer/internal/genres"
	"github.com/justestif/go-spotify-genre-organizer/internal/logging"
	"github.com/justestif/go-spotify-genre-organizer/internal/spotify"
)

// Description is set on every playlist the publisher creates.
const Description = "Sorted by genre from your Liked Songs."

// PlaylistAPI creates playlists and fills them with tracks.
// *spotify.Client satisfies it; uploads are expected to be chunked by the implementation.
type PlaylistAPI interface {
	CreatePlaylist(ctx context.Context, userID, name, description string) (*spotify.Playlist, error)
	AddTracksToPlaylist(ctx context.Context, playlistID string, trackIDs []string) error
}

// CoverUploader sets a playlist's cover image.
type CoverUploader interface {
	SetPlaylistCover(ctx context.Context, playlistID string, img io.Reader) error
}

// CoverGenerator renders the cover image for a genre.
type CoverGenerator interface {
	Generate(genre string) (io.Reader, error)
}

// Recorder stores the outcome of a publish run.
type Recorder interface {
	RecordRun(ctx context.Context, run *Run) error
}

// Created describes one playlist made during a publish run.
type Created struct {
	Genre      string
	PlaylistID string
	URL        string
	TrackCount int
}

// Run statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Run is the record of one Publish call.
type Run struct {
	ID         uuid.UUID
	UserID     string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string
	Error      string
	Created    []Created
}

// Publisher creates one playlist per genre.
type Publisher struct {
	api      PlaylistAPI
	covers   CoverGenerator
	uploader CoverUploader
	recorder Recorder
	log      *logrus.Entry
	now      func() time.Time
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithCovers attaches generated cover art to each new playlist.
func WithCovers(gen CoverGenerator, uploader CoverUploader) Option {
	return func(p *Publisher) {
		p.covers = gen
		p.uploader = uploader
	}
}

// WithRecorder stores every run through r.
func WithRecorder(r Recorder) Option {
	return func(p *Publisher) {
		p.recorder = r
	}
}

// WithLogger sets the logger used for progress messages.
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Publisher) {
		if l != nil {
			p.log = logging.Component(l, "playlists")
		}
	}
}

// NewPublisher returns a Publisher that creates playlists through api.
func NewPublisher(api PlaylistAPI, opts ...Option) *Publisher {
	p := &Publisher{
		api: api,
		log: logging.Component(logging.Discard(), "playlists"),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish creates a private playlist named after each genre in m, in the map's order,
// and uploads that genre's track IDs to it.
//
// The first failure stops the run. Playlists created before it are left in place and are
// reported through a *PartialError. Nothing is deduplicated against existing playlists, so
// publishing the same map twice creates every playlist twice.
func (p *Publisher) Publish(ctx context.Context, userID string, m *genres.Map) ([]Created, error) {
	run := &Run{
		ID:        uuid.New(),
		UserID:    userID,
		StartedAt: p.now(),
	}
	log := p.log.WithField("run_id", run.ID.String()).WithField("user_id", userID)
	log.WithField("genres", m.Len()).Info("Publishing genre playlists")

	var err error
	for _, genre := range m.Genres() {
		var created *Created
		created, err = p.publishGenre(ctx, userID, genre, m.Values(genre))
		if created != nil {
			run.Created = append(run.Created, *created)
		}
		if err != nil {
			break
		}
		log.WithField("genre", genre).WithField("tracks", created.TrackCount).Debug("Playlist created")
	}

	run.FinishedAt = p.now()
	if err != nil {
		run.Status = StatusFailed
		run.Error = err.Error()
		log.WithError(err).WithField("created", len(run.Created)).Error("Publishing stopped; created playlists were kept")
	} else {
		run.Status = StatusCompleted
		log.WithField("created", len(run.Created)).Info("Published genre playlists")
	}

	p.record(ctx, run)

	if err != nil {
		return run.Created, &PartialError{Created: run.Created, Err: err}
	}
	return run.Created, nil
}

// publishGenre returns the playlist whenever it was created, even if the upload then failed.
// A failed upload reports a TrackCount of 0.
func (p *Publisher) publishGenre(ctx context.Context, userID, genre string, trackIDs []string) (*Created, error) {
	playlist, err := p.api.CreatePlaylist(ctx, userID, genre, Description)
	if err != nil {
		return nil, err
	}

	created := &Created{
		Genre:      genre,
		PlaylistID: playlist.ID,
		URL:        playlist.URL,
	}

	if err := p.api.AddTracksToPlaylist(ctx, playlist.ID, trackIDs); err != nil {
		return created, err
	}
	created.TrackCount = len(trackIDs)

	p.setCover(ctx, playlist.ID, genre)

	return created, nil
}

// setCover uploads generated art. Failures are logged and never abort the run.
func (p *Publisher) setCover(ctx context.Context, playlistID, genre string) {
	if p.covers == nil || p.uploader == nil {
		return
	}

	img, err := p.covers.Generate(genre)
	if err == nil {
		err = p.uploader.SetPlaylistCover(ctx, playlistID, img)
	}
	if err != nil {
		p.log.WithError(err).WithField("genre", genre).Warn("Failed to set playlist cover")
	}
}

func (p *Publisher) record(ctx context.Context, run *Run) {
	if p.recorder == nil {
		return
	}
	// The run has happened remotely even if the request was cancelled.
	if err := p.recorder.RecordRun(context.WithoutCancel(ctx), run); err != nil {
		p.log.WithError(err).WithField("run_id", run.ID.String()).Warn("Failed to record publish run")
	}
}
