// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pdiddy/verse-prep/pkg/types"
)

// Postgres stores verses in a PostgreSQL table keyed by verse_id.
//
// NewPostgres accepts an externally-owned pool; ConnectPostgres creates one
// that Close releases.
type Postgres struct {
	pool  *pgxpool.Pool
	table string
	owned bool
}

var _ Store = (*Postgres)(nil)

// NewPostgres wraps an existing pool. The caller owns and closes the pool.
func NewPostgres(pool *pgxpool.Pool, table string) *Postgres {
	if table == "" {
		table = DefaultCollection
	}
	return &Postgres{pool: pool, table: table}
}

// ConnectPostgres opens a pool for dsn and verifies the connection.
func ConnectPostgres(ctx context.Context, dsn, table string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	p := NewPostgres(pool, table)
	p.owned = true
	return p, nil
}

// Name implements Store.
func (p *Postgres) Name() string { return "postgres:" + p.table }

// Close releases the pool if ConnectPostgres created it.
func (p *Postgres) Close() error {
	if p.owned {
		p.pool.Close()
	}
	return nil
}

func (p *Postgres) ident() string {
	return pgx.Identifier{p.table}.Sanitize()
}

// Init creates the verses table. Safe to call multiple times.
func (p *Postgres) Init(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + p.ident() + ` (
			verse_id INTEGER PRIMARY KEY,
			book_name TEXT NOT NULL,
			book_number INTEGER NOT NULL,
			chapter INTEGER NOT NULL,
			verse INTEGER NOT NULL,
			text TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS ` + pgx.Identifier{p.table + "_ref_idx"}.Sanitize() +
			` ON ` + p.ident() + ` (book_number, chapter, verse)`,
	}
	for _, stmt := range stmts {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: init: %w", err)
		}
	}
	return nil
}

// Put upserts verses in one transaction using a pipelined batch.
func (p *Postgres) Put(ctx context.Context, verses []types.Verse) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	upsert := `INSERT INTO ` + p.ident() + ` (verse_id, book_name, book_number, chapter, verse, text)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (verse_id) DO UPDATE SET
		  book_name = EXCLUDED.book_name,
		  book_number = EXCLUDED.book_number,
		  chapter = EXCLUDED.chapter,
		  verse = EXCLUDED.verse,
		  text = EXCLUDED.text`

	batch := &pgx.Batch{}
	for _, v := range verses {
		batch.Queue(upsert, v.VerseID, v.BookName, v.BookNumber, v.Chapter, v.Verse, v.Text)
	}

	br := tx.SendBatch(ctx, batch)
	for _, v := range verses {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("postgres: upsert verse %d: %w", v.VerseID, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("postgres: batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

// Get returns the verse with the given id, or ErrNotFound.
func (p *Postgres) Get(ctx context.Context, id int) (types.Verse, error) {
	var v types.Verse
	err := p.pool.QueryRow(ctx,
		`SELECT verse_id, book_name, book_number, chapter, verse, text FROM `+p.ident()+` WHERE verse_id = $1`, id,
	).Scan(&v.VerseID, &v.BookName, &v.BookNumber, &v.Chapter, &v.Verse, &v.Text)
	if err == pgx.ErrNoRows {
		return types.Verse{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return types.Verse{}, fmt.Errorf("postgres: get verse %d: %w", id, err)
	}
	return v, nil
}

// Count returns the number of stored verses.
func (p *Postgres) Count(ctx context.Context) (int, error) {
	var n int
	if err := p.pool.QueryRow(ctx, `SELECT count(*) FROM `+p.ident()).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count: %w", err)
	}
	return n, nil
}
