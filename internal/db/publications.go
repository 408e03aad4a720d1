package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultHistoryLimit bounds ListForUser when no limit is given.
const DefaultHistoryLimit = 20

// PublicationRepository handles publish history operations.
type PublicationRepository struct {
	pool *pgxpool.Pool
}

// Create inserts a publication and its playlists in one transaction.
func (r *PublicationRepository) Create(ctx context.Context, p *Publication) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO publications (id, user_id, started_at, finished_at, status, error)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, p.ID, p.UserID, p.StartedAt, p.FinishedAt, p.Status, p.Error)
		if err != nil {
			return fmt.Errorf("inserting publication: %w", err)
		}

		if len(p.Playlists) == 0 {
			return nil
		}

		rows := make([][]any, len(p.Playlists))
		for i, pl := range p.Playlists {
			rows[i] = []any{p.ID, i, pl.Genre, pl.PlaylistID, pl.URL, pl.TrackCount}
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"publication_playlists"},
			[]string{"publication_id", "position", "genre", "playlist_id", "url", "track_count"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("inserting publication playlists: %w", err)
		}
		return nil
	})
}

// ListForUser returns the user's most recent publications, newest first, with their playlists.
func (r *PublicationRepository) ListForUser(ctx context.Context, userID string, limit int) ([]Publication, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, started_at, finished_at, status, error
		FROM publications
		WHERE user_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying publications: %w", err)
	}

	pubs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Publication, error) {
		var p Publication
		err := row.Scan(&p.ID, &p.UserID, &p.StartedAt, &p.FinishedAt, &p.Status, &p.Error)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning publications: %w", err)
	}
	if len(pubs) == 0 {
		return pubs, nil
	}

	ids := make([]uuid.UUID, len(pubs))
	index := make(map[uuid.UUID]int, len(pubs))
	for i, p := range pubs {
		ids[i] = p.ID
		index[p.ID] = i
	}

	plRows, err := r.pool.Query(ctx, `
		SELECT publication_id, genre, playlist_id, url, track_count
		FROM publication_playlists
		WHERE publication_id = ANY($1)
		ORDER BY publication_id, position
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("querying publication playlists: %w", err)
	}
	defer plRows.Close()

	for plRows.Next() {
		var id uuid.UUID
		var pl PublishedPlaylist
		if err := plRows.Scan(&id, &pl.Genre, &pl.PlaylistID, &pl.URL, &pl.TrackCount); err != nil {
			return nil, fmt.Errorf("scanning publication playlist: %w", err)
		}
		i := index[id]
		pubs[i].Playlists = append(pubs[i].Playlists, pl)
	}
	if err := plRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating publication playlists: %w", err)
	}

	return pubs, nil
}
