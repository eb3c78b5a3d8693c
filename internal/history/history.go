// Package history persists build run summaries in a per-site SQLite
// database. Recording is best effort: callers log failures and move on, a
// broken history database never fails a build.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// DBSubpath is the history database location relative to the site root.
const DBSubpath = ".sitegen/history.db"

const defaultRecentLimit = 20

// Record is one persisted build run.
type Record struct {
	BuildID       string
	StartedAt     time.Time
	DurationMS    int64
	Outcome       string
	Posts         int
	Pages         int
	FilesRendered int
	OutputDir     string
}

// Store implements the build history on SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open creates a history store at dbPath, creating parent directories and
// the schema as needed. Use ":memory:" for an ephemeral store.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize history schema: %w", err)
	}
	return store, nil
}

// OpenAt opens the store at the conventional location under siteRoot.
func OpenAt(siteRoot string) (*Store, error) {
	return Open(filepath.Join(siteRoot, filepath.FromSlash(DBSubpath)))
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		posts INTEGER NOT NULL,
		pages INTEGER NOT NULL,
		files_rendered INTEGER NOT NULL,
		output_dir TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started_at ON builds(started_at);
	CREATE INDEX IF NOT EXISTS idx_builds_build_id ON builds(build_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append stores one build record.
func (s *Store) Append(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO builds (build_id, started_at, duration_ms, outcome, posts, pages, files_rendered, output_dir)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.BuildID, rec.StartedAt.Unix(), rec.DurationMS, rec.Outcome,
		rec.Posts, rec.Pages, rec.FilesRendered, rec.OutputDir,
	)
	if err != nil {
		return fmt.Errorf("insert build record: %w", err)
	}
	return nil
}

// Recent returns the latest records, newest first. A non-positive limit
// falls back to a small default.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = defaultRecentLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT build_id, started_at, duration_ms, outcome, posts, pages, files_rendered, output_dir
		 FROM builds ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query build records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var startedUnix int64
		if err := rows.Scan(&rec.BuildID, &startedUnix, &rec.DurationMS, &rec.Outcome,
			&rec.Posts, &rec.Pages, &rec.FilesRendered, &rec.OutputDir); err != nil {
			return nil, fmt.Errorf("scan build record: %w", err)
		}
		rec.StartedAt = time.Unix(startedUnix, 0).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate build records: %w", err)
	}
	return records, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
