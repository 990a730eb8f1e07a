// Package history keeps a SQLite log of completed phases for statistics.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/SoarinFerret/FocusWarden/internal/session"
)

const schema = `
CREATE TABLE IF NOT EXISTS phases (
	id              TEXT PRIMARY KEY,
	mode            TEXT NOT NULL,
	phase           INTEGER NOT NULL,
	started_at      INTEGER NOT NULL,
	ended_at        INTEGER NOT NULL,
	running_seconds INTEGER NOT NULL,
	pauses          INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_phases_ended_at ON phases(ended_at);
`

// Entry is one completed phase.
type Entry struct {
	ID             string
	Mode           session.Mode
	Phase          int
	StartedAt      time.Time
	EndedAt        time.Time
	RunningSeconds int64
	Pauses         int
}

// Totals aggregates the entries of one mode.
type Totals struct {
	Count          int
	RunningSeconds int64
}

// DB wraps the history database.
type DB struct {
	conn *sql.DB
	path string
	mu   sync.Mutex
}

// Open opens (and creates) the database at path with WAL enabled.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &DB{conn: conn, path: path}, nil
}

func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.conn.Close()
}

func (db *DB) Path() string {
	return db.path
}

// Record stores a finished phase record.
func (db *DB) Record(ctx context.Context, rec session.PhaseRecord) error {
	end := rec.EndTime
	if end.IsZero() {
		end = time.Now()
	}
	pauses := 0
	for _, seg := range rec.Segments {
		if seg.Reason != "" {
			pauses++
		}
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO phases (id, mode, phase, started_at, ended_at, running_seconds, pauses)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), string(rec.Mode), rec.Phase,
		rec.StartTime.Unix(), end.Unix(), rec.Duration(), pauses)
	if err != nil {
		return fmt.Errorf("insert phase: %w", err)
	}
	return nil
}

// Summary totals the phases that ended at or after since, per mode.
func (db *DB) Summary(ctx context.Context, since time.Time) (map[session.Mode]Totals, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT mode, COUNT(*), COALESCE(SUM(running_seconds), 0)
		 FROM phases WHERE ended_at >= ? GROUP BY mode`, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("query summary: %w", err)
	}
	defer rows.Close()

	out := make(map[session.Mode]Totals)
	for rows.Next() {
		var (
			mode string
			t    Totals
		)
		if err := rows.Scan(&mode, &t.Count, &t.RunningSeconds); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		out[session.Mode(mode)] = t
	}
	return out, rows.Err()
}

// Recent returns up to limit entries, newest first.
func (db *DB) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, mode, phase, started_at, ended_at, running_seconds, pauses
		 FROM phases ORDER BY ended_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			mode       string
			start, end int64
		)
		if err := rows.Scan(&e.ID, &mode, &e.Phase, &start, &end, &e.RunningSeconds, &e.Pauses); err != nil {
			return nil, fmt.Errorf("scan phase: %w", err)
		}
		e.Mode = session.Mode(mode)
		e.StartedAt = time.Unix(start, 0)
		e.EndedAt = time.Unix(end, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
