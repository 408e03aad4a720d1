package web

import (
	"context"
	"errors"
	"net/http"
	"sync"

	spotifyapi "github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/justestif/go-spotify-genre-organizer/internal/organizer"
	"github.com/justestif/go-spotify-genre-organizer/internal/spotify"
)

// ErrNotAuthenticated is returned when a request has neither a session nor a default client to use.
var ErrNotAuthenticated = errors.New("not authenticated: log in at /auth/login or run the login command")

// ClientResolver picks the Spotify client a request acts through.
// The returned release func must be called once the request is done with the client.
type ClientResolver interface {
	Resolve(r *http.Request) (organizer.Client, func(), error)
}

// ClientSource prefers the browser session's token and falls back to the process-default client.
type ClientSource struct {
	auth     *spotifyauth.Authenticator
	sessions SessionManager
	fallback *spotifyapi.Client
	opts     []spotify.Option

	mu          sync.Mutex
	saveToken   func(*oauth2.Token) error
	savedAccess string
}

// NewClientSource returns a ClientSource. fallback may be nil when no token is cached.
func NewClientSource(auth *spotifyauth.Authenticator, sessions SessionManager, fallback *spotifyapi.Client, opts ...spotify.Option) *ClientSource {
	return &ClientSource{
		auth:     auth,
		sessions: sessions,
		fallback: fallback,
		opts:     opts,
	}
}

// Resolve returns a client for the request. Tokens refreshed during the request are
// written back to the session on release.
func (s *ClientSource) Resolve(r *http.Request) (organizer.Client, func(), error) {
	if session := sessionFromRequest(s.sessions, r); session != nil && s.auth != nil {
		vendor := spotifyapi.New(s.auth.Client(r.Context(), session.Token))
		release := func() {
			token, err := vendor.Token()
			if err == nil && token.AccessToken != session.Token.AccessToken {
				s.sessions.UpdateToken(context.WithoutCancel(r.Context()), session.ID, token)
			}
		}
		return spotify.New(vendor, s.opts...), release, nil
	}

	if s.fallback != nil {
		return spotify.New(s.fallback, s.opts...), s.persistFallbackToken, nil
	}

	return nil, nil, ErrNotAuthenticated
}

// PersistFallbackToken makes every release of the fallback client write its current token
// through save whenever the access token has changed since the last write.
func (s *ClientSource) PersistFallbackToken(save func(*oauth2.Token) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveToken = save
}

func (s *ClientSource) persistFallbackToken() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saveToken == nil {
		return
	}
	token, err := s.fallback.Token()
	if err != nil || token.AccessToken == s.savedAccess {
		return
	}
	if err := s.saveToken(token); err != nil {
		return
	}
	s.savedAccess = token.AccessToken
}
