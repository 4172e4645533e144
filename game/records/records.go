// Package records persists retirement results in SQL and serves the
// leaderboard.
package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	// DefaultMaxItems is the page size when the caller does not ask for one.
	DefaultMaxItems = 100
	// MaxItemsLimit caps the page size a caller may request.
	MaxItemsLimit = 100
)

var (
	// ErrInvalidStart is returned for a negative page offset.
	ErrInvalidStart = errors.New("invalid start offset")
	// ErrInvalidMaxItems is returned for a page size outside [0, MaxItemsLimit].
	ErrInvalidMaxItems = errors.New("invalid maxItems")
)

// Record is one retired player's final result.
type Record struct {
	ID       string
	Name     string
	Score    int
	PlayTime time.Duration
}

// Repository stores retirement records in a SQL database.
type Repository struct {
	db *sql.DB
}

// Open connects to the database named by dsn and ensures the schema
// exists.
func Open(dsn string) (*Repository, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening records db: %w", err)
	}
	// The sqlite driver serializes writes; one connection avoids lock
	// contention entirely.
	db.SetMaxOpenConns(1)
	r := &Repository{db: db}
	if err := r.prepare(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

// Close releases the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) prepare() error {
	const schema = `
CREATE TABLE IF NOT EXISTS retired_players (
	id           TEXT PRIMARY KEY,
	name         VARCHAR(100) NOT NULL,
	score        INTEGER NOT NULL,
	play_time_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_retired_players_rating
	ON retired_players (score DESC, play_time_ms ASC, name ASC);
`
	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("preparing records schema: %w", err)
	}
	return nil
}

// AddPlayerScore appends one retirement row.
func (r *Repository) AddPlayerScore(ctx context.Context, name string, score int, playTime time.Duration) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("adding player score: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO retired_players (id, name, score, play_time_ms) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), name, score, playTime.Milliseconds())
	if err != nil {
		return fmt.Errorf("adding player score: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("adding player score: %w", err)
	}
	return nil
}

// PlayersScore returns up to maxItems records starting at start, best
// results first. Ties break on shorter play time, then name.
func (r *Repository) PlayersScore(ctx context.Context, start, maxItems int) ([]Record, error) {
	if start < 0 {
		return nil, ErrInvalidStart
	}
	if maxItems < 0 || maxItems > MaxItemsLimit {
		return nil, ErrInvalidMaxItems
	}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("reading players score: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT id, name, score, play_time_ms
		   FROM retired_players
		  ORDER BY score DESC, play_time_ms ASC, name ASC
		  LIMIT ? OFFSET ?`,
		maxItems, start)
	if err != nil {
		return nil, fmt.Errorf("reading players score: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var playTimeMS int64
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Score, &playTimeMS); err != nil {
			return nil, fmt.Errorf("reading players score: %w", err)
		}
		rec.PlayTime = time.Duration(playTimeMS) * time.Millisecond
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading players score: %w", err)
	}
	return records, nil
}
