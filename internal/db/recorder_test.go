package db

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/justestif/go-spotify-genre-organizer/internal/playlists"
)

func TestPublicationFromRun(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	id := uuid.New()

	tests := []struct {
		name       string
		run        *playlists.Run
		wantStatus string
		wantError  bool
		wantLists  int
	}{
		{
			name: "completed",
			run: &playlists.Run{
				ID: id, UserID: "u1", StartedAt: start, FinishedAt: start.Add(time.Minute),
				Status: playlists.StatusCompleted,
				Created: []playlists.Created{
					{Genre: "rock", PlaylistID: "p1", URL: "https://open.spotify.com/playlist/p1", TrackCount: 3},
					{Genre: "jazz", PlaylistID: "p2", URL: "https://open.spotify.com/playlist/p2", TrackCount: 1},
				},
			},
			wantStatus: PublicationCompleted,
			wantLists:  2,
		},
		{
			name: "failed with partial playlists",
			run: &playlists.Run{
				ID: id, UserID: "u1", StartedAt: start, FinishedAt: start,
				Status:  playlists.StatusFailed,
				Error:   "upload failed",
				Created: []playlists.Created{{Genre: "rock", PlaylistID: "p1"}},
			},
			wantStatus: PublicationFailed,
			wantError:  true,
			wantLists:  1,
		},
		{
			name: "failed before any playlist",
			run: &playlists.Run{
				ID: id, UserID: "u1", Status: playlists.StatusFailed, Error: "create failed",
			},
			wantStatus: PublicationFailed,
			wantError:  true,
			wantLists:  0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := publicationFromRun(tt.run)

			if p.ID != tt.run.ID || p.UserID != tt.run.UserID {
				t.Errorf("identity = %s/%s, want %s/%s", p.ID, p.UserID, tt.run.ID, tt.run.UserID)
			}
			if p.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", p.Status, tt.wantStatus)
			}
			if (p.Error != nil) != tt.wantError {
				t.Errorf("Error = %v, want set = %v", p.Error, tt.wantError)
			}
			if tt.wantError && *p.Error != tt.run.Error {
				t.Errorf("Error = %q, want %q", *p.Error, tt.run.Error)
			}
			if len(p.Playlists) != tt.wantLists {
				t.Fatalf("Playlists = %d, want %d", len(p.Playlists), tt.wantLists)
			}
			for i, c := range tt.run.Created {
				if p.Playlists[i].Genre != c.Genre || p.Playlists[i].URL != c.URL {
					t.Errorf("Playlists[%d] = %+v, want %+v", i, p.Playlists[i], c)
				}
			}
		})
	}
}
