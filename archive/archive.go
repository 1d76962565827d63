// Package archive keeps a PostgreSQL journal of Weatherbit API responses.
//
// Snapshots are written after a successful call and can be listed later for
// inspection. The journal is never read in place of a live API call.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS weatherbit_snapshots (
	id         BIGSERIAL PRIMARY KEY,
	call       TEXT        NOT NULL,
	url        TEXT        NOT NULL,
	fetched_at TIMESTAMPTZ NOT NULL,
	payload    JSONB       NOT NULL
);
CREATE INDEX IF NOT EXISTS weatherbit_snapshots_call_fetched_at_idx
	ON weatherbit_snapshots (call, fetched_at DESC);
`

// Snapshot is one archived API response
type Snapshot struct {
	ID        int64
	Call      string // forecast, current or usage
	URL       string // request URL with the key redacted
	FetchedAt time.Time
	Payload   map[string]any
}

// Store persists snapshots in PostgreSQL
type Store struct {
	db *sql.DB
}

// Open connects to PostgreSQL using a lib/pq connection string
func Open(connString string) (*Store, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return NewStore(db), nil
}

// NewStore wraps an existing database handle
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close releases the database handle
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the snapshot table if it does not exist
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Save stores a snapshot and returns its ID. The key in URL is redacted
// before it reaches the database.
func (s *Store) Save(ctx context.Context, snap Snapshot) (int64, error) {
	if snap.Call == "" {
		return 0, fmt.Errorf("snapshot call cannot be empty")
	}
	if snap.FetchedAt.IsZero() {
		snap.FetchedAt = time.Now()
	}

	payload, err := json.Marshal(snap.Payload)
	if err != nil {
		return 0, fmt.Errorf("failed to encode payload: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO weatherbit_snapshots (call, url, fetched_at, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, snap.Call, RedactKey(snap.URL), snap.FetchedAt.UTC(), payload).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return id, nil
}

// Recent returns up to limit snapshots, newest first. An empty call matches
// every call.
func (s *Store) Recent(ctx context.Context, call string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than 0, got: %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, call, url, fetched_at, payload
		FROM weatherbit_snapshots
		WHERE $1::text = '' OR call = $1::text
		ORDER BY fetched_at DESC, id DESC
		LIMIT $2
	`, call, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		var snap Snapshot
		var payload []byte
		if err := rows.Scan(&snap.ID, &snap.Call, &snap.URL, &snap.FetchedAt, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		if err := json.Unmarshal(payload, &snap.Payload); err != nil {
			return nil, fmt.Errorf("failed to decode payload of snapshot %d: %w", snap.ID, err)
		}
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshots: %w", err)
	}

	return snapshots, nil
}

// RedactKey replaces the value of the key query parameter with REDACTED,
// leaving the rest of the URL byte for byte intact.
func RedactKey(rawURL string) string {
	q := strings.IndexByte(rawURL, '?')
	if q < 0 {
		return rawURL
	}

	pairs := strings.Split(rawURL[q+1:], "&")
	for i, pair := range pairs {
		if strings.HasPrefix(pair, "key=") {
			pairs[i] = "key=REDACTED"
		}
	}
	return rawURL[:q+1] + strings.Join(pairs, "&")
}
