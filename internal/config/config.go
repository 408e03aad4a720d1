// Package config loads application settings from the environment and an optional TOML file.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
)

const (
	DefaultHost        = "0.0.0.0"
	DefaultPort        = 8000
	DefaultRedirectURI = "http://127.0.0.1:8000/callback"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
)

// ErrMissingCredentials is returned when the Spotify client id or secret is not configured.
var ErrMissingCredentials = errors.New("missing SPOTIFY_CLIENT_ID or SPOTIFY_CLIENT_SECRET")

// Config is the complete application configuration.
type Config struct {
	Spotify  SpotifyConfig  `toml:"spotify"`
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Lastfm   LastfmConfig   `toml:"lastfm"`
	Sentry   SentryConfig   `toml:"sentry"`
	Log      LogConfig      `toml:"log"`
}

// SpotifyConfig holds OAuth credentials and client tuning.
type SpotifyConfig struct {
	ClientID       string  `toml:"client_id"`
	ClientSecret   string  `toml:"client_secret"`
	RedirectURI    string  `toml:"redirect_uri"`
	RateLimit      float64 `toml:"rate_limit"` // requests per second, 0 disables
	TokenCache     string  `toml:"token_cache"`
	PlaylistCovers bool    `toml:"playlist_covers"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// DatabaseConfig holds the optional PostgreSQL connection string.
type DatabaseConfig struct {
	URL string `toml:"url"`
}

// LastfmConfig holds the optional Last.fm API key used as a genre fallback.
type LastfmConfig struct {
	APIKey string `toml:"api_key"`
}

// SentryConfig holds error reporting settings. An empty DSN disables reporting.
type SentryConfig struct {
	DSN         string `toml:"dsn"`
	Environment string `toml:"environment"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns a Config populated with defaults only.
func Default() *Config {
	return &Config{
		Spotify: SpotifyConfig{
			RedirectURI: DefaultRedirectURI,
		},
		Server: ServerConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Load builds the configuration: defaults, then the TOML file at path (if non-empty),
// then environment variables, which always win.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overrides fields with any environment variables that are set.
func (c *Config) applyEnv() {
	c.Spotify.ClientID = getString("SPOTIFY_CLIENT_ID", c.Spotify.ClientID)
	c.Spotify.ClientSecret = getString("SPOTIFY_CLIENT_SECRET", c.Spotify.ClientSecret)
	c.Spotify.RedirectURI = getString("SPOTIFY_REDIRECT_URI", c.Spotify.RedirectURI)
	c.Spotify.RateLimit = getFloat("SPOTIFY_RATE_LIMIT", c.Spotify.RateLimit)
	c.Spotify.TokenCache = getString("TOKEN_CACHE", c.Spotify.TokenCache)
	c.Spotify.PlaylistCovers = getBool("PLAYLIST_COVERS", c.Spotify.PlaylistCovers)

	c.Server.Host = getString("HOST", c.Server.Host)
	c.Server.Port = getPort("PORT", c.Server.Port)

	c.Database.URL = getString("DATABASE_URL", c.Database.URL)
	c.Lastfm.APIKey = getString("LASTFM_API_KEY", c.Lastfm.APIKey)

	c.Sentry.DSN = getString("SENTRY_DSN", c.Sentry.DSN)
	c.Sentry.Environment = getString("SENTRY_ENVIRONMENT", c.Sentry.Environment)

	c.Log.Level = getString("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getString("LOG_FORMAT", c.Log.Format)
}

// Validate reports configuration that makes the application unusable.
func (c *Config) Validate() error {
	if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" {
		return ErrMissingCredentials
	}
	return nil
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Scopes returns the OAuth scopes the application requests.
func (s SpotifyConfig) Scopes() []string {
	scopes := []string{
		spotifyauth.ScopeUserLibraryRead,
		spotifyauth.ScopePlaylistModifyPrivate,
	}
	if s.PlaylistCovers {
		scopes = append(scopes, spotifyauth.ScopeImageUpload)
	}
	return scopes
}

func getString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getPort(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	port, err := strconv.Atoi(v)
	if err != nil || port <= 0 || port > 65535 {
		return fallback
	}
	return port
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return fallback
	}
	return f
}

func getBool(key string, fallback bool) bool {
	v := strings.ToLower(os.Getenv(key))
	switch v {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
