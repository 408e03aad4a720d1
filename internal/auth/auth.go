package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/justestif/go-spotify-genre-organizer/internal/config"
	"github.com/justestif/go-spotify-genre-organizer/internal/logging"
)

const callbackTimeout = 2 * time.Minute

var (
	// ErrAuthTimeout is returned when the OAuth callback is not received in time.
	ErrAuthTimeout = errors.New("authentication timed out waiting for callback")

	// ErrStateMismatch is returned when the OAuth state parameter doesn't match.
	ErrStateMismatch = errors.New("OAuth state mismatch")

	// ErrNotLoggedIn is returned when no usable token is cached.
	ErrNotLoggedIn = errors.New("not logged in: run the login command first")
)

// NewSpotifyAuth builds the Spotify OAuth authenticator for the configured app.
// Redirect URIs must use an explicit loopback IP for local development, see
// https://developer.spotify.com/documentation/web-api/concepts/redirect-uri
func NewSpotifyAuth(cfg config.SpotifyConfig) *spotifyauth.Authenticator {
	return spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
		spotifyauth.WithRedirectURL(cfg.RedirectURI),
		spotifyauth.WithScopes(cfg.Scopes()...),
	)
}

// Authenticator handles the command-line Spotify OAuth2 flow and the cached token
// that the process-wide client is built from.
type Authenticator struct {
	auth     *spotifyauth.Authenticator
	cache    *TokenCache
	redirect *url.URL
	out      io.Writer
	log      *logrus.Entry
}

// New creates an Authenticator from the Spotify configuration.
// Returns config.ErrMissingCredentials if the client id or secret is not set.
func New(cfg config.SpotifyConfig, log logrus.FieldLogger) (*Authenticator, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, config.ErrMissingCredentials
	}

	redirect, err := url.Parse(cfg.RedirectURI)
	if err != nil || redirect.Host == "" {
		return nil, fmt.Errorf("invalid redirect URI %q", cfg.RedirectURI)
	}

	cache := NewTokenCache(cfg.TokenCache)
	if cfg.TokenCache == "" {
		cache, err = DefaultTokenCache()
		if err != nil {
			return nil, fmt.Errorf("creating token cache: %w", err)
		}
	}

	if log == nil {
		log = logging.Discard()
	}

	return &Authenticator{
		auth:     NewSpotifyAuth(cfg),
		cache:    cache,
		redirect: redirect,
		out:      os.Stdout,
		log:      logging.Component(log, "auth"),
	}, nil
}

// SetOutput sets where the interactive login prompt is written.
func (a *Authenticator) SetOutput(w io.Writer) {
	a.out = w
}

// TokenCache returns the cache the Authenticator reads and writes.
func (a *Authenticator) TokenCache() *TokenCache {
	return a.cache
}

// Client wraps token in an authenticated vendor client. oauth2 refreshes it as needed.
// The client is built without retries: a failed call fails the operation.
func (a *Authenticator) Client(ctx context.Context, token *oauth2.Token) *spotify.Client {
	return spotify.New(a.auth.Client(ctx, token))
}

// Cached returns a client built from the cached token without user interaction.
// It returns ErrNotLoggedIn if there is no cached token.
func (a *Authenticator) Cached(ctx context.Context) (*spotify.Client, error) {
	token, err := a.cache.Load()
	if err != nil {
		return nil, fmt.Errorf("loading cached token: %w", err)
	}
	if token == nil {
		return nil, ErrNotLoggedIn
	}

	client := a.Client(ctx, token)

	// Verify the token works; this also refreshes it if it has expired.
	if _, err := client.CurrentUser(ctx); err != nil {
		return nil, fmt.Errorf("verifying cached token: %w", err)
	}

	if newToken, err := client.Token(); err == nil && newToken.AccessToken != token.AccessToken {
		if err := a.cache.Save(newToken); err != nil {
			a.log.WithError(err).Warn("Failed to cache refreshed token")
		}
	}

	return client, nil
}

// Authenticate returns an authenticated Spotify client.
// It uses the cached token when it still works and otherwise runs the full OAuth flow.
func (a *Authenticator) Authenticate(ctx context.Context) (*spotify.Client, error) {
	client, err := a.Cached(ctx)
	if err == nil {
		return client, nil
	}
	if !errors.Is(err, ErrNotLoggedIn) {
		a.log.WithError(err).Info("Cached token invalid, starting new authentication")
	}

	return a.runOAuthFlow(ctx)
}

// runOAuthFlow performs the full OAuth authorization code flow.
func (a *Authenticator) runOAuthFlow(ctx context.Context) (*spotify.Client, error) {
	state, err := generateState()
	if err != nil {
		return nil, fmt.Errorf("generating state: %w", err)
	}

	tokenCh := make(chan *oauth2.Token, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(a.callbackPath(), func(w http.ResponseWriter, r *http.Request) {
		a.handleCallback(w, r, state, tokenCh, errCh)
	})

	server := &http.Server{
		Addr:              a.redirect.Host,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("callback server error: %w", err)
		}
	}()

	fmt.Fprintln(a.out, "\nTo authenticate, open this URL in your browser:")
	fmt.Fprintln(a.out, a.auth.AuthURL(state))
	fmt.Fprintln(a.out, "\nWaiting for authentication...")

	var token *oauth2.Token
	select {
	case token = <-tokenCh:
	case err := <-errCh:
		_ = server.Shutdown(ctx)
		return nil, err
	case <-time.After(callbackTimeout):
		_ = server.Shutdown(ctx)
		return nil, ErrAuthTimeout
	case <-ctx.Done():
		_ = server.Shutdown(context.Background())
		return nil, ctx.Err()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)

	if err := a.cache.Save(token); err != nil {
		// Auth succeeded; the user will just be asked again next time.
		a.log.WithError(err).Warn("Failed to cache token")
	}

	return a.Client(ctx, token), nil
}

func (a *Authenticator) callbackPath() string {
	if a.redirect.Path == "" {
		return "/"
	}
	return a.redirect.Path
}

// handleCallback processes the OAuth callback from Spotify.
func (a *Authenticator) handleCallback(w http.ResponseWriter, r *http.Request, expectedState string, tokenCh chan<- *oauth2.Token, errCh chan<- error) {
	if r.URL.Query().Get("state") != expectedState {
		http.Error(w, "State mismatch", http.StatusBadRequest)
		errCh <- ErrStateMismatch
		return
	}

	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		http.Error(w, "Authentication failed: "+errMsg, http.StatusBadRequest)
		errCh <- fmt.Errorf("spotify auth error: %s", errMsg)
		return
	}

	token, err := a.auth.Token(r.Context(), expectedState, r)
	if err != nil {
		http.Error(w, "Failed to get token", http.StatusInternalServerError)
		errCh <- fmt.Errorf("exchanging code for token: %w", err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "Authentication successful. You can close this window and return to the terminal.")

	tokenCh <- token
}

// generateState creates a random state string for OAuth.
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Logout removes the cached token.
func (a *Authenticator) Logout() error {
	return a.cache.Delete()
}
