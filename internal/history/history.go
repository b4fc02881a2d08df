// Package history provides a SQLite-backed record of finished ingestion
// jobs. Outcomes survive server restarts so operators can audit what was
// ingested, when, and whether it failed.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver

	"github.com/shubham119413/interview-rag/internal/job"
)

// Entry is one persisted ingestion outcome.
type Entry struct {
	JobID     string    `json:"job_id"`
	File      string    `json:"file"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	Chunks    int       `json:"chunks"`
	Duration  float64   `json:"duration_seconds"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists ingestion outcomes in a local SQLite database. It is
// safe for concurrent use and satisfies job.Recorder.
type Store struct {
	db *sql.DB
}

// DefaultDBPath resolves to ~/.interview-rag/history.db, creating the
// directory if needed.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("history: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".interview-rag")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("history: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "history.db"), nil
}

// Open opens (or creates) a Store at the given path and runs the schema
// migration. Use ":memory:" for an in-memory database in tests.
func Open(path string) (*Store, error) {
	// WAL mode improves concurrent read performance and is safe for single-host use.
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	// Limit to a single writer connection to avoid SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS ingestions (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    job_id       TEXT    NOT NULL,
    file         TEXT    NOT NULL,
    status       TEXT    NOT NULL CHECK(status IN ('done','failed')),
    error        TEXT    NOT NULL DEFAULT '',
    chunks       INTEGER NOT NULL DEFAULT 0,
    duration_ms  INTEGER NOT NULL DEFAULT 0,
    created_at   INTEGER NOT NULL  -- Unix timestamp (seconds)
);
CREATE INDEX IF NOT EXISTS idx_ingestions_created
    ON ingestions (created_at);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("history: migrate: %w", err)
	}
	return nil
}

// Record persists one job outcome.
func (s *Store) Record(ctx context.Context, o job.Outcome) error {
	const q = `INSERT INTO ingestions (job_id, file, status, error, chunks, duration_ms, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		o.JobID, o.File, o.Status, o.Error, o.Chunks, o.Duration.Milliseconds(), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("history: record: %w", err)
	}
	return nil
}

// Recent returns the most recent n outcomes, newest-first.
func (s *Store) Recent(ctx context.Context, n int) ([]Entry, error) {
	const q = `
SELECT job_id, file, status, error, chunks, duration_ms, created_at
FROM   ingestions
ORDER  BY created_at DESC, id DESC
LIMIT  ?`

	rows, err := s.db.QueryContext(ctx, q, n)
	if err != nil {
		return nil, fmt.Errorf("history: recent: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var durMS, ts int64
		if err := rows.Scan(&e.JobID, &e.File, &e.Status, &e.Error, &e.Chunks, &durMS, &ts); err != nil {
			return nil, fmt.Errorf("history: recent scan: %w", err)
		}
		e.Duration = float64(durMS) / 1000
		e.CreatedAt = time.Unix(ts, 0)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: recent rows: %w", err)
	}
	return entries, nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("history: ping: %w", err)
	}
	return nil
}

// Close releases the database connection pool.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("history: close: %w", err)
	}
	return nil
}
