package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver
)

const schema = `
CREATE TABLE IF NOT EXISTS extractions (
	id          TEXT PRIMARY KEY,
	source_path TEXT NOT NULL,
	file_type   TEXT NOT NULL,
	method      TEXT NOT NULL,
	output_path TEXT NOT NULL DEFAULT '',
	error       TEXT NOT NULL DEFAULT '',
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS extractions_created_at ON extractions (created_at);
`

// Entry is one recorded extraction.
type Entry struct {
	ID         string
	SourcePath string
	FileType   string
	Method     string
	OutputPath string // Empty when the extract was not saved.
	Error      string // Empty on success.
	CreatedAt  time.Time
}

// Failed reports whether the extraction failed.
func (e Entry) Failed() bool { return e.Error != "" }

// History records extractions in an SQLite database.
type History struct {
	db  *sql.DB
	now func() time.Time
}

// OpenHistory opens (creating if needed) the database at path.
func OpenHistory(ctx context.Context, path string) (*History, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrHistory, err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrHistory, path, err)
	}
	// A single connection serializes writers from parallel extractions.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: migrate: %w", ErrHistory, err)
	}
	return &History{db: db, now: time.Now}, nil
}

// Close closes the database.
func (h *History) Close() error {
	return h.db.Close()
}

// Add records e, assigning an ID and timestamp when unset.
func (h *History) Add(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = h.now()
	}
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO extractions (id, source_path, file_type, method, output_path, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SourcePath, e.FileType, e.Method, e.OutputPath, e.Error, e.CreatedAt.UnixNano())
	if err != nil {
		return Entry{}, fmt.Errorf("%w: insert: %w", ErrHistory, err)
	}
	return e, nil
}

// List returns up to limit entries, newest first. A non-positive limit
// returns everything.
func (h *History) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := h.db.QueryContext(ctx,
		`SELECT id, source_path, file_type, method, output_path, error, created_at
		 FROM extractions ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %w", ErrHistory, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var created int64
		if err := rows.Scan(&e.ID, &e.SourcePath, &e.FileType, &e.Method, &e.OutputPath, &e.Error, &created); err != nil {
			return nil, fmt.Errorf("%w: scan: %w", ErrHistory, err)
		}
		e.CreatedAt = time.Unix(0, created)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHistory, err)
	}
	return entries, nil
}
