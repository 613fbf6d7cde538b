// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/verse-prep/pkg/types"
)

const defaultSearchLimit = 20

// SQLite stores verses in a local database with a full-text index over the
// verse text.
type SQLite struct {
	db   *sql.DB
	path string

	// fts is false when the driver was built without FTS5; Search then falls
	// back to a LIKE scan.
	fts bool
}

var _ Store = (*SQLite)(nil)

// NewSQLite opens or creates the database at path and its schema.
func NewSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLite{db: db, path: path}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Name implements Store.
func (s *SQLite) Name() string { return "sqlite:" + s.path }

// Close releases the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS verses (
			verse_id INTEGER PRIMARY KEY,
			book_name TEXT NOT NULL,
			book_number INTEGER NOT NULL,
			chapter INTEGER NOT NULL,
			verse INTEGER NOT NULL,
			text TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_verses_ref ON verses(book_number, chapter, verse)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='verses_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists > 0 {
		s.fts = true
		return nil
	}

	if _, err := s.db.Exec(`CREATE VIRTUAL TABLE verses_fts USING fts5(text, content=verses, content_rowid=verse_id)`); err != nil {
		if strings.Contains(err.Error(), "no such module") {
			return nil
		}
		return fmt.Errorf("creating FTS table: %w", err)
	}

	triggers := []string{
		`CREATE TRIGGER verses_ai AFTER INSERT ON verses BEGIN
			INSERT INTO verses_fts(rowid, text) VALUES (new.verse_id, new.text);
		END`,
		`CREATE TRIGGER verses_ad AFTER DELETE ON verses BEGIN
			INSERT INTO verses_fts(verses_fts, rowid, text) VALUES('delete', old.verse_id, old.text);
		END`,
		`CREATE TRIGGER verses_au AFTER UPDATE ON verses BEGIN
			INSERT INTO verses_fts(verses_fts, rowid, text) VALUES('delete', old.verse_id, old.text);
			INSERT INTO verses_fts(rowid, text) VALUES (new.verse_id, new.text);
		END`,
	}
	for _, stmt := range triggers {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating FTS infrastructure: %w", err)
		}
	}
	s.fts = true
	return nil
}

// Put upserts verses in a single transaction.
func (s *SQLite) Put(ctx context.Context, verses []types.Verse) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO verses (verse_id, book_name, book_number, chapter, verse, text)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(verse_id) DO UPDATE SET
			book_name=excluded.book_name, book_number=excluded.book_number,
			chapter=excluded.chapter, verse=excluded.verse, text=excluded.text`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, v := range verses {
		if _, err := stmt.ExecContext(ctx, v.VerseID, v.BookName, v.BookNumber, v.Chapter, v.Verse, v.Text); err != nil {
			return fmt.Errorf("upserting verse %d: %w", v.VerseID, err)
		}
	}
	return tx.Commit()
}

const verseColumns = `verse_id, book_name, book_number, chapter, verse, text`

// Get returns the verse with the given id, or ErrNotFound.
func (s *SQLite) Get(ctx context.Context, id int) (types.Verse, error) {
	var v types.Verse
	err := s.db.QueryRowContext(ctx, `SELECT `+verseColumns+` FROM verses WHERE verse_id = ?`, id).
		Scan(&v.VerseID, &v.BookName, &v.BookNumber, &v.Chapter, &v.Verse, &v.Text)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Verse{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return types.Verse{}, fmt.Errorf("querying verse %d: %w", id, err)
	}
	return v, nil
}

// Count returns the number of stored verses.
func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM verses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting verses: %w", err)
	}
	return n, nil
}

// All returns every stored verse ordered by verse id.
func (s *SQLite) All(ctx context.Context) ([]types.Verse, error) {
	return s.query(ctx, `SELECT `+verseColumns+` FROM verses ORDER BY verse_id`)
}

// Search runs a full-text query over verse text, best matches first. A
// non-positive limit uses the default of 20.
func (s *SQLite) Search(ctx context.Context, query string, limit int) ([]types.Verse, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if !s.fts {
		return s.query(ctx,
			`SELECT `+verseColumns+` FROM verses WHERE text LIKE ? ORDER BY verse_id LIMIT ?`,
			"%"+query+"%", limit)
	}
	return s.query(ctx,
		`SELECT v.verse_id, v.book_name, v.book_number, v.chapter, v.verse, v.text
		FROM verses_fts
		JOIN verses v ON v.verse_id = verses_fts.rowid
		WHERE verses_fts MATCH ?
		ORDER BY verses_fts.rank, v.verse_id
		LIMIT ?`, query, limit)
}

func (s *SQLite) query(ctx context.Context, q string, args ...any) ([]types.Verse, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying verses: %w", err)
	}
	defer rows.Close()

	var verses []types.Verse
	for rows.Next() {
		var v types.Verse
		if err := rows.Scan(&v.VerseID, &v.BookName, &v.BookNumber, &v.Chapter, &v.Verse, &v.Text); err != nil {
			return nil, fmt.Errorf("scanning verse: %w", err)
		}
		verses = append(verses, v)
	}
	return verses, rows.Err()
}
