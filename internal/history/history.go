// Package history records asked questions in a local SQLite database.
// Only the question, the generated SQL, the row count and the outcome are kept;
// result rows never touch the disk.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"querymind/cli/internal/xdg"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS questions (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    asked_at    TEXT NOT NULL,
    instance_id TEXT NOT NULL DEFAULT '',
    question    TEXT NOT NULL,
    sql_query   TEXT NOT NULL DEFAULT '',
    row_count   INTEGER NOT NULL DEFAULT 0,
    outcome     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_questions_asked_at ON questions(asked_at);
`

// Outcomes stored with each entry.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

// Entry is one recorded question.
type Entry struct {
	ID         int64
	AskedAt    time.Time
	InstanceID string
	Question   string
	SQL        string
	RowCount   int
	Outcome    string
}

// Store persists entries.
type Store struct {
	db *sql.DB
}

// DefaultPath returns $XDG_DATA_HOME/querymind/history.db.
func DefaultPath() (string, error) {
	dir, err := xdg.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// Open opens (or creates) the database at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection serializes writers from the shell and watch loops.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Record appends an entry and returns its id. A zero AskedAt is set to now.
func (s *Store) Record(ctx context.Context, e Entry) (int64, error) {
	if e.AskedAt.IsZero() {
		e.AskedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO questions (asked_at, instance_id, question, sql_query, row_count, outcome)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.AskedAt.UTC().Format(time.RFC3339Nano),
		e.InstanceID,
		e.Question,
		e.SQL,
		e.RowCount,
		e.Outcome,
	)
	if err != nil {
		return 0, fmt.Errorf("record question: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, asked_at, instance_id, question, sql_query, row_count, outcome
		FROM questions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var askedAt string
		if err := rows.Scan(&e.ID, &askedAt, &e.InstanceID, &e.Question, &e.SQL, &e.RowCount, &e.Outcome); err != nil {
			return nil, err
		}
		e.AskedAt, _ = time.Parse(time.RFC3339Nano, askedAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Clear deletes every entry.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM questions`)
	return err
}
