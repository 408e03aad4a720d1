// Command spotify-genre-organizer groups your Spotify liked songs by genre and
// turns each genre into a private playlist, over HTTP or from the command line.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	r := newRunner(os.Stdout)

	app := &cli.Command{
		Name:  "spotify-genre-organizer",
		Usage: "Sort Spotify liked songs into per-genre playlists",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to an optional TOML configuration file",
				Sources: cli.EnvVars("CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to a .env file to load before reading the environment",
				Value: ".env",
			},
		},
		Before:   r.before,
		After:    r.after,
		Action:   r.serve,
		Commands: r.commands(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (r *runner) commands() []*cli.Command {
	return []*cli.Command{
		{
			Name:   "serve",
			Usage:  "Run the HTTP API (default)",
			Action: r.serve,
		},
		{
			Name:   "login",
			Usage:  "Authorize with Spotify and cache the token for the server and CLI",
			Action: r.login,
		},
		{
			Name:   "logout",
			Usage:  "Remove the cached Spotify token",
			Action: r.logout,
		},
		{
			Name:  "classify",
			Usage: "Print liked songs grouped by genre as JSON",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "by-id",
					Usage: "List track IDs instead of track names",
				},
			},
			Action: r.classify,
		},
		{
			Name:   "publish",
			Usage:  "Create one private playlist per genre of your liked songs",
			Action: r.publish,
		},
		{
			Name:   "migrate",
			Usage:  "Create the database schema (requires DATABASE_URL)",
			Action: r.migrate,
		},
	}
}
