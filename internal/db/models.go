package db

import (
	"time"

	"github.com/google/uuid"
)

// User represents a Spotify user profile.
type User struct {
	ID            string
	DisplayName   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	LastPublishAt *time.Time // nullable
}

// Session represents an authenticated web session.
type Session struct {
	ID           string
	UserID       string
	AccessToken  string
	RefreshToken string
	TokenExpiry  time.Time
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// Publication statuses.
const (
	PublicationCompleted = "completed"
	PublicationFailed    = "failed"
)

// Publication is one recorded run of playlist publishing.
// It is history only: it never prevents a later run from creating the same playlists again.
type Publication struct {
	ID         uuid.UUID
	UserID     string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string
	Error      *string // nullable
	Playlists  []PublishedPlaylist
}

// PublishedPlaylist is a playlist created during a publication, in creation order.
type PublishedPlaylist struct {
	Genre      string
	PlaylistID string
	URL        string
	TrackCount int
}
