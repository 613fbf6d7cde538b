// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package clean rewrites the verse dataset with leading headings removed
// from the text column. Every other column and the row order are written
// back exactly as read.
package clean

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/pdiddy/verse-prep/internal/dataset"
	"github.com/pdiddy/verse-prep/internal/subheading"
	"github.com/pdiddy/verse-prep/pkg/types"
)

// Summary holds counts from a clean run.
type Summary struct {
	Rows      int
	Stripped  int
	Unchanged int

	// Short counts rows with too few fields to reach the text column. They
	// are passed through untouched.
	Short int
}

// Options controls Process.
type Options struct {
	// TextColumn is the column to clean (default "Text").
	TextColumn string

	// DryRun counts and reports without writing rows.
	DryRun bool

	// Report, when set, receives one line per stripped heading.
	Report io.Writer
}

// Process streams the dataset from r to w, stripping the text column of
// every row. A header without the text column aborts the run before
// anything is written.
func Process(ctx context.Context, r io.Reader, enc types.Encoding, w io.Writer, s *subheading.Stripper, opts Options, logger *zap.Logger) (Summary, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	column := opts.TextColumn
	if column == "" {
		column = types.ColumnText
	}

	rd, err := dataset.NewReader(r, enc)
	if err != nil {
		return Summary{}, err
	}
	if err := rd.Require(column); err != nil {
		return Summary{}, err
	}
	idx, _ := rd.Index(column)

	sink := dataset.NewWriter(w)
	if opts.DryRun {
		sink = dataset.NewWriter(io.Discard)
	}
	if err := sink.WriteHeader(rd.Header()); err != nil {
		return Summary{}, fmt.Errorf("writing header: %w", err)
	}

	var summary Summary
	for {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		row, err := rd.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return summary, err
		}
		summary.Rows++

		if len(row.Fields) <= idx {
			summary.Short++
			logger.Warn("row too short to clean", zap.Int("line", row.Line), zap.Int("fields", len(row.Fields)))
		} else if res := s.Detect(row.Fields[idx]); res.Stripped() {
			summary.Stripped++
			row.Fields[idx] = res.Text
			logger.Debug("stripped heading",
				zap.Int("line", row.Line),
				zap.Stringer("method", res.Method),
				zap.String("heading", res.Heading))
			if opts.Report != nil {
				fmt.Fprintf(opts.Report, "line %d [%s]: %q\n", row.Line, res.Method, res.Heading)
			}
		} else {
			summary.Unchanged++
		}

		if err := sink.Write(row); err != nil {
			return summary, fmt.Errorf("writing line %d: %w", row.Line, err)
		}
	}

	if err := sink.Flush(); err != nil {
		return summary, fmt.Errorf("flushing output: %w", err)
	}

	logger.Info("clean finished",
		zap.Int("rows", summary.Rows),
		zap.Int("stripped", summary.Stripped),
		zap.Int("unchanged", summary.Unchanged),
		zap.Int("short", summary.Short),
		zap.Bool("dry_run", opts.DryRun))
	return summary, nil
}

// Run cleans cfg.Input into cfg.Output. The output is written to a
// temporary file in the same directory and renamed into place, so a failed
// run leaves any previous output intact. Input and Output may be the same
// path.
func Run(ctx context.Context, cfg types.CleanConfig, s *subheading.Stripper, report io.Writer, logger *zap.Logger) (Summary, error) {
	opts := Options{TextColumn: cfg.TextColumn, DryRun: cfg.DryRun, Report: report}

	in, err := os.Open(cfg.Input)
	if err != nil {
		return Summary{}, fmt.Errorf("opening input: %w", err)
	}

	if cfg.DryRun {
		defer in.Close()
		return Process(ctx, in, cfg.Encoding, io.Discard, s, opts, logger)
	}

	if cfg.Output == "" {
		in.Close()
		return Summary{}, fmt.Errorf("no output path")
	}
	tmp, err := os.CreateTemp(filepath.Dir(cfg.Output), ".verse-prep-*.csv")
	if err != nil {
		in.Close()
		return Summary{}, fmt.Errorf("creating temporary output: %w", err)
	}

	summary, err := Process(ctx, in, cfg.Encoding, tmp, s, opts, logger)
	in.Close()
	if err == nil {
		err = tmp.Chmod(0o644)
	}
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("closing output: %w", cerr)
	}
	if err != nil {
		os.Remove(tmp.Name())
		return summary, err
	}

	if err := os.Rename(tmp.Name(), cfg.Output); err != nil {
		os.Remove(tmp.Name())
		return summary, fmt.Errorf("replacing output: %w", err)
	}
	return summary, nil
}

// PrintSummary writes the one-line summary of a run.
func PrintSummary(w io.Writer, s Summary) {
	fmt.Fprintf(w, "\nrows: %d, stripped: %d, unchanged: %d, short: %d\n",
		s.Rows, s.Stripped, s.Unchanged, s.Short)
}
