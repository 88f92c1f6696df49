// Package history keeps a sqlite log of finished renders.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS renders (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id   TEXT    NOT NULL,
	dialect      TEXT    NOT NULL,
	mode         TEXT    NOT NULL,
	slides       INTEGER NOT NULL,
	bulletin     INTEGER NOT NULL DEFAULT 0,
	content_hash TEXT    NOT NULL,
	filename     TEXT    NOT NULL,
	duration_ms  INTEGER NOT NULL,
	rendered_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_renders_rendered_at ON renders(rendered_at);
`

// Entry is one finished render.
type Entry struct {
	ID          int64     `json:"id"`
	SessionID   string    `json:"session_id"`
	Dialect     string    `json:"dialect"`
	Mode        string    `json:"mode"`
	Slides      int       `json:"slides"`
	Bulletin    bool      `json:"bulletin"`
	ContentHash string    `json:"content_hash"`
	Filename    string    `json:"filename"`
	DurationMS  int64     `json:"duration_ms"`
	RenderedAt  time.Time `json:"rendered_at"`
}

// Store is a render log backed by one sqlite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path. ":memory:" gives a
// private in-memory log.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("history: mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("history: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: schema: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: ping: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Record inserts e and returns its row ID. A zero RenderedAt is stamped
// with the current time.
func (s *Store) Record(ctx context.Context, e Entry) (int64, error) {
	if e.RenderedAt.IsZero() {
		e.RenderedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO renders (session_id, dialect, mode, slides, bulletin, content_hash, filename, duration_ms, rendered_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SessionID, e.Dialect, e.Mode, e.Slides, boolInt(e.Bulletin), e.ContentHash, e.Filename, e.DurationMS, e.RenderedAt.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("record render: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, dialect, mode, slides, bulletin, content_hash, filename, duration_ms, rendered_at
		 FROM renders ORDER BY rendered_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query renders: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var bull int
		var at int64
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Dialect, &e.Mode, &e.Slides, &bull, &e.ContentHash, &e.Filename, &e.DurationMS, &at); err != nil {
			return nil, fmt.Errorf("scan render: %w", err)
		}
		e.Bulletin = bull != 0
		e.RenderedAt = time.UnixMilli(at)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountByDialect returns the number of renders per dialect.
func (s *Store) CountByDialect(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT dialect, COUNT(*) FROM renders GROUP BY dialect`)
	if err != nil {
		return nil, fmt.Errorf("count renders: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var d string
		var n int
		if err := rows.Scan(&d, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		out[d] = n
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
