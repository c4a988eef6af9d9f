// Package journal persists a per-tree record of sync activity backed by
// SQLite: one row per archived chapter, rename, or failure. The history
// command reads it; the orchestrator writes it best-effort.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Actions recorded by the orchestrator.
const (
	ActionArchived = "archived"
	ActionRenamed  = "renamed"
	ActionFailed   = "failed"
)

// DBName is the journal filename inside the output directory.
const DBName = ".mangasync-journal.db"

// Event is one journal row.
type Event struct {
	ID        int64
	MangaID   string
	ChapterID string
	Action    string
	Path      string
	Detail    string
	CreatedAt time.Time
}

// Store manages journal persistence.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the journal database inside dir and applies
// migrations.
func Open(dir string) (*Store, error) {
	dbPath := filepath.Join(dir, DBName)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) applyMigrations(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS sync_events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    manga_id TEXT NOT NULL,
    chapter_id TEXT NOT NULL DEFAULT '',
    action TEXT NOT NULL,
    path TEXT NOT NULL,
    detail TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sync_events_created_at ON sync_events(created_at);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Record inserts one event with the current timestamp.
func (s *Store) Record(ctx context.Context, event Event) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO sync_events (manga_id, chapter_id, action, path, detail, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		event.MangaID,
		event.ChapterID,
		event.Action,
		event.Path,
		event.Detail,
		timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit < 1 {
		limit = 20
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, manga_id, chapter_id, action, path, detail, created_at
         FROM sync_events ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var event Event
		var createdAt string
		if err := rows.Scan(&event.ID, &event.MangaID, &event.ChapterID, &event.Action, &event.Path, &event.Detail, &createdAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if parsed, parseErr := time.Parse(time.RFC3339Nano, createdAt); parseErr == nil {
			event.CreatedAt = parsed
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
