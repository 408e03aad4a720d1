// Package spotify provides a wrapper around the Spotify Web API.
package spotify

import (
	"context"
	"fmt"
	"io"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/time/rate"

	"github.com/justestif/go-spotify-genre-organizer/internal/logging"
)

// API is the subset of *spotify.Client used by this package.
type API interface {
	CurrentUser(ctx context.Context) (*spotify.PrivateUser, error)
	CurrentUsersTracks(ctx context.Context, opts ...spotify.RequestOption) (*spotify.SavedTrackPage, error)
	GetArtist(ctx context.Context, id spotify.ID) (*spotify.FullArtist, error)
	CreatePlaylistForUser(ctx context.Context, userID, playlistName, description string, public bool, collaborative bool) (*spotify.FullPlaylist, error)
	AddTracksToPlaylist(ctx context.Context, playlistID spotify.ID, trackIDs ...spotify.ID) (string, error)
	SetPlaylistImage(ctx context.Context, playlistID spotify.ID, img io.Reader) error
}

var _ API = (*spotify.Client)(nil)

// Client wraps the Spotify API client with convenience methods.
type Client struct {
	api     API
	limiter *rate.Limiter
	log     *logrus.Entry
}

// Option configures a Client.
type Option func(*Client)

// WithLimiter throttles every outbound call through l. A nil limiter disables throttling.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithLogger sets the logger used for progress messages.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = logging.Component(l, "spotify")
		}
	}
}

// New creates a new Spotify client wrapper.
// The underlying client should already be authenticated.
func New(api API, opts ...Option) *Client {
	c := &Client{
		api: api,
		log: logging.Component(logging.Discard(), "spotify"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewLimiter returns a limiter allowing rps requests per second, or nil if rps is not positive.
// A single limiter is meant to be shared by every Client of a process.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// wait blocks until the limiter admits one more request.
func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for rate limiter: %w", err)
	}
	return nil
}

// startSpan opens a Sentry span for one API call.
func startSpan(ctx context.Context, op, description string) *sentry.Span {
	span := sentry.StartSpan(ctx, op)
	span.Description = description
	return span
}

// finishSpan records the outcome of the call on the span and closes it.
func finishSpan(span *sentry.Span, err error) {
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
	} else {
		span.Status = sentry.SpanStatusOK
	}
	span.Finish()
}

// CurrentUser returns the authenticated user's profile.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	span := startSpan(ctx, "spotify.current_user", "Get current user profile")
	user, err := c.api.CurrentUser(span.Context())
	finishSpan(span, err)
	if err != nil {
		return nil, fmt.Errorf("getting current user: %w", err)
	}

	return &User{
		ID:          user.ID,
		DisplayName: user.DisplayName,
	}, nil
}

// UserID returns the current user's Spotify ID.
func (c *Client) UserID(ctx context.Context) (string, error) {
	user, err := c.CurrentUser(ctx)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}
