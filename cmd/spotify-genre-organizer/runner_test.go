package main

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/justestif/go-spotify-genre-organizer/internal/config"
	"github.com/justestif/go-spotify-genre-organizer/internal/logging"
)

func testRunner(databaseURL string) *runner {
	r := newRunner(io.Discard)
	r.cfg = config.Default()
	r.cfg.Database.URL = databaseURL
	r.log = logging.Discard()
	return r
}

func TestOpenDB_Unconfigured(t *testing.T) {
	database, err := testRunner("").openDB(context.Background())
	if err != nil || database != nil {
		t.Errorf("openDB() = %v, %v; want nil, nil", database, err)
	}
}

func TestOpenDB_AppliesSchema(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	database, err := testRunner(url).openDB(ctx)
	if err != nil {
		t.Fatalf("openDB() error = %v", err)
	}
	defer database.Close()

	// The tables serve relies on exist without a separate migrate run.
	if err := database.Users().Ensure(ctx, "runner-test-user"); err != nil {
		t.Errorf("Users().Ensure() error = %v", err)
	}
	if _, err := database.Publications().ListForUser(ctx, "runner-test-user", 1); err != nil {
		t.Errorf("Publications().ListForUser() error = %v", err)
	}
}

func TestMigrate_RequiresDatabase(t *testing.T) {
	if err := testRunner("").migrate(context.Background(), nil); err == nil {
		t.Error("migrate() error = nil, want error without DATABASE_URL")
	}
}
