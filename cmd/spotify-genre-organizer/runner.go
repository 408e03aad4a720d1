package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/justestif/go-spotify-genre-organizer/internal/auth"
	"github.com/justestif/go-spotify-genre-organizer/internal/config"
	"github.com/justestif/go-spotify-genre-organizer/internal/cover"
	"github.com/justestif/go-spotify-genre-organizer/internal/db"
	"github.com/justestif/go-spotify-genre-organizer/internal/genres"
	"github.com/justestif/go-spotify-genre-organizer/internal/lastfm"
	"github.com/justestif/go-spotify-genre-organizer/internal/logging"
	"github.com/justestif/go-spotify-genre-organizer/internal/organizer"
	"github.com/justestif/go-spotify-genre-organizer/internal/spotify"
	"github.com/justestif/go-spotify-genre-organizer/internal/web"
)

// runner holds what every command needs once configuration is loaded.
type runner struct {
	cfg     *config.Config
	log     *logrus.Logger
	out     io.Writer
	limiter *rate.Limiter
	flush   func()
}

func newRunner(out io.Writer) *runner {
	return &runner{
		log:   logging.Discard(),
		out:   out,
		flush: func() {},
	}
}

// before loads .env, the config file and the environment, then sets up logging and Sentry.
func (r *runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	envFile := cmd.String("env-file")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return ctx, fmt.Errorf("loading %s: %w", envFile, err)
	}

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return ctx, err
	}
	r.cfg = cfg
	r.log = logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	r.limiter = spotify.NewLimiter(cfg.Spotify.RateLimit)

	flush, err := initSentry(cfg.Sentry)
	if err != nil {
		r.log.WithError(err).Warn("Error reporting disabled")
	} else {
		r.flush = flush
	}

	return ctx, nil
}

func (r *runner) after(context.Context, *cli.Command) error {
	r.flush()
	return nil
}

func (r *runner) authenticator() (*auth.Authenticator, error) {
	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}
	return auth.New(r.cfg.Spotify, r.log)
}

func (r *runner) spotifyOptions() []spotify.Option {
	return []spotify.Option{
		spotify.WithLimiter(r.limiter),
		spotify.WithLogger(r.log),
	}
}

// openDB connects to the configured database and applies the schema, or returns nil when
// none is configured.
func (r *runner) openDB(ctx context.Context) (*db.DB, error) {
	if r.cfg.Database.URL == "" {
		return nil, nil
	}
	database, err := db.New(ctx, r.cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// organizer wires the optional collaborators the configuration enables.
func (r *runner) organizer(database *db.DB) *organizer.Organizer {
	opts := []organizer.Option{organizer.WithLogger(r.log)}

	if r.cfg.Lastfm.APIKey != "" {
		opts = append(opts, organizer.WithFallback(lastfm.NewClient(&lastfm.Config{APIKey: r.cfg.Lastfm.APIKey}, r.log)))
	}
	if r.cfg.Spotify.PlaylistCovers {
		opts = append(opts, organizer.WithCovers(cover.NewGenerator()))
	}
	if database != nil {
		opts = append(opts, organizer.WithRecorder(db.NewRecorder(database)))
	}

	return organizer.New(opts...)
}

func (r *runner) serve(ctx context.Context, _ *cli.Command) error {
	a, err := r.authenticator()
	if err != nil {
		return err
	}

	database, err := r.openDB(ctx)
	if err != nil {
		return err
	}
	if database != nil {
		defer database.Close()
	}

	// The cached token, if any, serves requests that carry no browser session.
	defaultClient, err := a.Cached(ctx)
	switch {
	case errors.Is(err, auth.ErrNotLoggedIn):
		r.log.Info("No cached token; requests need a browser login at /auth/login")
	case err != nil:
		r.log.WithError(err).Warn("Cached token unusable; requests need a browser login at /auth/login")
	}

	spotifyAuth := auth.NewSpotifyAuth(r.cfg.Spotify)

	cfg := web.ServerConfig{
		Addr:      r.cfg.Server.Addr(),
		Auth:      spotifyAuth,
		Organizer: r.organizer(database),
		Logger:    r.log,
	}
	if database != nil {
		cfg.Sessions = web.NewDBSessionStore(database)
		cfg.History = database.Publications()
		cfg.Health = database.Ping
	} else {
		cfg.Sessions = web.NewMemorySessionStore()
	}
	clients := web.NewClientSource(spotifyAuth, cfg.Sessions, defaultClient, r.spotifyOptions()...)
	clients.PersistFallbackToken(func(token *oauth2.Token) error {
		if err := a.TokenCache().Save(token); err != nil {
			r.log.WithError(err).Warn("Failed to cache refreshed token")
			return err
		}
		return nil
	})
	cfg.Clients = clients

	server, err := web.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return server.Run(ctx)
}

func (r *runner) login(ctx context.Context, _ *cli.Command) error {
	a, err := r.authenticator()
	if err != nil {
		return err
	}

	vendor, err := a.Authenticate(ctx)
	if err != nil {
		return err
	}

	user, err := spotify.New(vendor, r.spotifyOptions()...).CurrentUser(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(r.out, "Logged in as %s (%s). Token cached at %s\n", user.DisplayName, user.ID, a.TokenCache().Path())
	return nil
}

func (r *runner) logout(_ context.Context, _ *cli.Command) error {
	a, err := r.authenticator()
	if err != nil {
		return err
	}
	if err := a.Logout(); err != nil {
		return err
	}

	fmt.Fprintln(r.out, "Logged out.")
	return nil
}

// client authenticates interactively if needed and wraps the result.
func (r *runner) client(ctx context.Context) (*spotify.Client, error) {
	a, err := r.authenticator()
	if err != nil {
		return nil, err
	}

	vendor, err := a.Authenticate(ctx)
	if err != nil {
		return nil, err
	}
	return spotify.New(vendor, r.spotifyOptions()...), nil
}

func (r *runner) classify(ctx context.Context, cmd *cli.Command) error {
	client, err := r.client(ctx)
	if err != nil {
		return err
	}

	key := genres.ByName
	if cmd.Bool("by-id") {
		key = genres.ByID
	}

	m, err := r.organizer(nil).Classify(ctx, client, key)
	if err != nil {
		return err
	}

	return r.writeJSON(struct {
		Genres *genres.Map `json:"genres"`
	}{m})
}

type createdPlaylist struct {
	Genre string `json:"genre"`
	URL   string `json:"url"`
}

func (r *runner) publish(ctx context.Context, _ *cli.Command) error {
	client, err := r.client(ctx)
	if err != nil {
		return err
	}

	database, err := r.openDB(ctx)
	if err != nil {
		return err
	}
	if database != nil {
		defer database.Close()
	}

	created, err := r.organizer(database).Publish(ctx, client)
	if err != nil {
		return err
	}

	out := make([]createdPlaylist, 0, len(created))
	for _, c := range created {
		out = append(out, createdPlaylist{Genre: c.Genre, URL: c.URL})
	}
	return r.writeJSON(struct {
		Created []createdPlaylist `json:"created"`
	}{out})
}

func (r *runner) migrate(ctx context.Context, _ *cli.Command) error {
	database, err := r.openDB(ctx)
	if err != nil {
		return err
	}
	if database == nil {
		return errors.New("migrate requires DATABASE_URL")
	}
	database.Close()

	r.log.Info("Database schema is up to date")
	return nil
}

func (r *runner) writeJSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
