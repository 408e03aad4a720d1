package main

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/justestif/go-spotify-genre-organizer/internal/config"
)

const sentryFlushTimeout = 2 * time.Second

// initSentry enables error reporting and tracing when a DSN is configured.
// The returned func flushes buffered events and is safe to call either way.
func initSentry(cfg config.SentryConfig) (func(), error) {
	if cfg.DSN == "" {
		return func() {}, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		EnableTracing:    true,
		TracesSampleRate: 1.0,
	})
	if err != nil {
		return nil, fmt.Errorf("sentry.Init: %w", err)
	}

	return func() { sentry.Flush(sentryFlushTimeout) }, nil
}
