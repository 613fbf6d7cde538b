// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package upload loads verse records into a document store in batches.
// Each record is keyed by its VerseID, so re-running an upload overwrites
// documents rather than duplicating them.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/verse-prep/internal/dataset"
	"github.com/pdiddy/verse-prep/internal/subheading"
	"github.com/pdiddy/verse-prep/pkg/types"
)

const (
	// DefaultBatchSize stays one under the per-commit write limit.
	DefaultBatchSize = 499

	// MaxBatchSize is the largest number of writes a single commit accepts.
	MaxBatchSize = 500
)

// ErrBatchSize is returned when the configured batch size exceeds
// MaxBatchSize.
var ErrBatchSize = errors.New("batch size out of range")

// Store is the write side of a document store.
type Store interface {
	Name() string
	Put(ctx context.Context, verses []types.Verse) error
}

// Summary holds counts from an upload run.
type Summary struct {
	Read     int
	Stripped int
	Batches  int
	Written  int
}

// Uploader commits verses to a Store.
type Uploader struct {
	store       Store
	stripper    *subheading.Stripper
	batchSize   int
	concurrency int
	logger      *zap.Logger
}

// Option configures an Uploader.
type Option func(*Uploader)

// WithStripper removes subheadings from each verse before it is written.
// A nil stripper uploads text unchanged.
func WithStripper(s *subheading.Stripper) Option {
	return func(u *Uploader) { u.stripper = s }
}

// WithBatchSize sets the number of verses per commit. Non-positive values
// select DefaultBatchSize.
func WithBatchSize(n int) Option {
	return func(u *Uploader) { u.batchSize = n }
}

// WithConcurrency sets how many batches may be in flight at once.
func WithConcurrency(n int) Option {
	return func(u *Uploader) { u.concurrency = n }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(u *Uploader) { u.logger = l }
}

// New returns an Uploader writing to store.
func New(store Store, opts ...Option) (*Uploader, error) {
	u := &Uploader{store: store, concurrency: 1}
	for _, opt := range opts {
		opt(u)
	}
	if u.batchSize <= 0 {
		u.batchSize = DefaultBatchSize
	}
	if u.batchSize > MaxBatchSize {
		return nil, fmt.Errorf("%w: %d (max %d)", ErrBatchSize, u.batchSize, MaxBatchSize)
	}
	if u.concurrency <= 0 {
		u.concurrency = 1
	}
	if u.logger == nil {
		u.logger = zap.NewNop()
	}
	return u, nil
}

// Batches splits verses into consecutive slices of at most size elements.
func Batches(verses []types.Verse, size int) [][]types.Verse {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var out [][]types.Verse
	for start := 0; start < len(verses); start += size {
		end := min(start+size, len(verses))
		out = append(out, verses[start:end])
	}
	return out
}

// Upload strips (when configured) and commits verses. Progress lines are
// written to w. The first failed commit cancels the batches not yet
// started and is returned with the counts accumulated so far.
func (u *Uploader) Upload(ctx context.Context, verses []types.Verse, w io.Writer) (Summary, error) {
	summary := Summary{Read: len(verses)}

	prepared := verses
	if u.stripper != nil {
		prepared = make([]types.Verse, len(verses))
		for i, v := range verses {
			prepared[i] = u.stripper.StripVerse(v)
			if prepared[i].Text != v.Text {
				summary.Stripped++
				u.logger.Debug("stripped heading",
					zap.Int("verse_id", v.VerseID),
					zap.String("reference", v.Reference()))
			}
		}
	}

	batches := Batches(prepared, u.batchSize)
	u.logger.Info("uploading",
		zap.String("store", u.store.Name()),
		zap.Int("verses", len(prepared)),
		zap.Int("batches", len(batches)),
		zap.Int("concurrency", u.concurrency))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)

	for i, batch := range batches {
		i, batch := i, batch
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := u.store.Put(gctx, batch); err != nil {
				u.logger.Error("batch failed", zap.Int("batch", i+1), zap.Error(err))
				return fmt.Errorf("batch %d (verses %d-%d): %w",
					i+1, batch[0].VerseID, batch[len(batch)-1].VerseID, err)
			}

			mu.Lock()
			summary.Batches++
			summary.Written += len(batch)
			fmt.Fprintf(w, "committed batch %d/%d (%d verses)\n", i+1, len(batches), len(batch))
			mu.Unlock()
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	return summary, err
}

// Run reads the dataset named by cfg.Input and uploads it to store.
func Run(ctx context.Context, cfg types.UploadConfig, store Store, s *subheading.Stripper, w io.Writer, logger *zap.Logger) (Summary, error) {
	f, err := os.Open(cfg.Input)
	if err != nil {
		return Summary{}, fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()

	verses, err := dataset.ReadVerses(f, cfg.Encoding)
	if err != nil {
		return Summary{}, fmt.Errorf("reading %s: %w", cfg.Input, err)
	}
	fmt.Fprintf(w, "read %d verses from %s\n", len(verses), cfg.Input)

	opts := []Option{
		WithBatchSize(cfg.BatchSize),
		WithConcurrency(cfg.Concurrency),
		WithLogger(logger),
	}
	if !cfg.SkipStrip {
		opts = append(opts, WithStripper(s))
	}
	u, err := New(store, opts...)
	if err != nil {
		return Summary{}, err
	}
	return u.Upload(ctx, verses, w)
}

// PrintSummary writes the one-line upload summary.
func PrintSummary(w io.Writer, s Summary) {
	fmt.Fprintf(w, "\nread: %d, stripped: %d, batches: %d, written: %d\n",
		s.Read, s.Stripped, s.Batches, s.Written)
}
