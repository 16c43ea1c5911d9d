// Package history keeps a log of successful translations in SQLite. Only the
// outcome is stored; raw helper payloads never leave the request.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"codeberg.org/snonux/rode/internal/translation"
)

const schema = `
CREATE TABLE IF NOT EXISTS translations (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	input           TEXT    NOT NULL,
	source_language TEXT    NOT NULL,
	output_language TEXT    NOT NULL,
	output_word     TEXT    NOT NULL,
	strategy        TEXT    NOT NULL,
	created_at      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_translations_input ON translations(input);
`

// Entry is one recorded translation
type Entry struct {
	ID             int64
	Input          string
	SourceLanguage string
	OutputLanguage string
	OutputWord     string
	Strategy       string
	CreatedAt      time.Time
}

// Store is a SQLite backed translation log
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (and creates if needed) the history database at path
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Record stores a successful translation
func (s *Store) Record(ctx context.Context, result *translation.Result) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO translations (input, source_language, output_language, output_word, strategy, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		result.Input,
		result.SourceLanguage,
		result.OutputLanguage,
		result.OutputWord,
		string(result.Strategy),
		s.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to record translation: %w", err)
	}

	return nil
}

// Recent returns up to limit entries, newest first
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, input, source_language, output_language, output_word, strategy, created_at
		 FROM translations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			created int64
		)
		if err := rows.Scan(&e.ID, &e.Input, &e.SourceLanguage, &e.OutputLanguage, &e.OutputWord, &e.Strategy, &created); err != nil {
			return nil, fmt.Errorf("failed to read history row: %w", err)
		}
		e.CreatedAt = time.UnixMilli(created)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}
