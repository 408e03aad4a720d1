// Package web serves the genre organizer's JSON API and browser login flow.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	spotifyauth "github.com/zmb3/spotify/v2/auth"

	"github.com/justestif/go-spotify-genre-organizer/internal/logging"
	"github.com/justestif/go-spotify-genre-organizer/internal/organizer"
)

const purgeInterval = time.Hour

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr      string
	Auth      *spotifyauth.Authenticator
	Sessions  SessionManager // defaults to an in-memory store
	Clients   ClientResolver // defaults to a ClientSource over Auth and Sessions
	Organizer *organizer.Organizer
	History   HistoryStore                // nil without a database
	Health    func(context.Context) error // optional readiness check
	Logger    logrus.FieldLogger
}

// Server is the HTTP server for the application.
type Server struct {
	router   chi.Router
	server   *http.Server
	sessions SessionManager
	handlers *Handlers
	log      *logrus.Entry
}

// NewServer creates a new web server.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Organizer == nil {
		return nil, errors.New("web: organizer is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	log := logging.Component(logger, "web")

	sessions := cfg.Sessions
	if sessions == nil {
		sessions = NewMemorySessionStore()
	}

	clients := cfg.Clients
	if clients == nil {
		clients = NewClientSource(cfg.Auth, sessions, nil)
	}

	router := chi.NewRouter()

	s := &Server{
		router:   router,
		sessions: sessions,
		handlers: &Handlers{
			auth:      cfg.Auth,
			sessions:  sessions,
			clients:   clients,
			organizer: cfg.Organizer,
			history:   cfg.History,
			health:    cfg.Health,
			log:       log,
		},
		log: log,
	}

	s.setupMiddleware()
	s.setupRoutes(cfg.Auth != nil)

	// No write timeout: publishing a large library can legitimately take minutes.
	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s, nil
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  s.log,
		NoColor: true,
	}))
	s.router.Use(middleware.Recoverer)
	s.router.Use(sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle)
}

// setupRoutes configures routes for the application.
func (s *Server) setupRoutes(withLogin bool) {
	s.router.Get("/", s.handlers.Root)
	s.router.Get("/healthz", s.handlers.Healthz)

	s.router.Get("/classify-liked-songs", s.handlers.ClassifyLikedSongs)
	s.router.Post("/create-playlists-by-genre", s.handlers.CreatePlaylistsByGenre)
	s.router.Get("/publications", s.handlers.Publications)

	if withLogin {
		s.router.Get("/auth/login", s.handlers.Login)
		s.router.Get("/callback", s.handlers.Callback)
	}
	s.router.Post("/auth/logout", s.handlers.Logout)
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Infof("Starting server at http://%s", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Run starts the server and shuts it down gracefully on an interrupt signal or when ctx ends.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	go s.purgeSessions(ctx)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.log.Info("Shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.log.Info("Server stopped")
	return nil
}

// purgeSessions drops expired sessions periodically until ctx ends.
func (s *Server) purgeSessions(ctx context.Context) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.sessions.Purge(ctx)
			if err != nil {
				s.log.WithError(err).Warn("Failed to purge expired sessions")
				continue
			}
			if n > 0 {
				s.log.WithField("purged", n).Debug("Purged expired sessions")
			}
		}
	}
}
