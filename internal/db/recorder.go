package db

import (
	"context"
	"fmt"

	"github.com/justestif/go-spotify-genre-organizer/internal/playlists"
)

// Recorder stores publish runs as publications.
type Recorder struct {
	db *DB
}

// NewRecorder returns a Recorder writing to db.
func NewRecorder(db *DB) *Recorder {
	return &Recorder{db: db}
}

var _ playlists.Recorder = (*Recorder)(nil)

// RecordRun stores run and, when it completed, stamps the user's last publish time.
func (r *Recorder) RecordRun(ctx context.Context, run *playlists.Run) error {
	if err := r.db.Users().Ensure(ctx, run.UserID); err != nil {
		return err
	}

	if err := r.db.Publications().Create(ctx, publicationFromRun(run)); err != nil {
		return fmt.Errorf("recording publication %s: %w", run.ID, err)
	}

	if run.Status == playlists.StatusCompleted {
		if err := r.db.Users().UpdateLastPublish(ctx, run.UserID, run.FinishedAt); err != nil {
			return err
		}
	}
	return nil
}

func publicationFromRun(run *playlists.Run) *Publication {
	p := &Publication{
		ID:         run.ID,
		UserID:     run.UserID,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Status:     PublicationCompleted,
		Playlists:  make([]PublishedPlaylist, 0, len(run.Created)),
	}
	if run.Status == playlists.StatusFailed {
		p.Status = PublicationFailed
	}
	if run.Error != "" {
		msg := run.Error
		p.Error = &msg
	}
	for _, c := range run.Created {
		p.Playlists = append(p.Playlists, PublishedPlaylist{
			Genre:      c.Genre,
			PlaylistID: c.PlaylistID,
			URL:        c.URL,
			TrackCount: c.TrackCount,
		})
	}
	return p
}
