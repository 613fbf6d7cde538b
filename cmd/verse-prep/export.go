// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/verse-prep/internal/dataset"
	"github.com/pdiddy/verse-prep/internal/docstore"
	"github.com/pdiddy/verse-prep/internal/export"
	"github.com/pdiddy/verse-prep/pkg/types"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export verses as the front end's bible.json asset",
	Long: `Export reads verses from a dataset CSV (or from a sqlite store with --db)
and writes a document with the book layout (name, abbreviation, verse
numbers per chapter) and the flat verse list. JSON is the front end's
format; YAML is available for review.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("input", "net_cleaned.csv", "dataset CSV to export")
	exportCmd.Flags().String("encoding", "utf-8", "input encoding: utf-8, latin-1, or windows-1252")
	exportCmd.Flags().String("db", "", "read verses from this sqlite store instead of --input")
	exportCmd.Flags().String("output", "bible.json", "file to write")
	exportCmd.Flags().String("format", "json", "export format: json or yaml")
	exportCmd.Flags().Bool("strip", false, "remove subheadings while exporting")

	bindFlags(exportCmd, map[string]string{
		"input":    "export.input",
		"encoding": "export.encoding",
		"output":   "export.output",
		"format":   "export.format",
	})

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	enc, err := dataset.ParseEncoding(viper.GetString("export.encoding"))
	if err != nil {
		return err
	}
	cfg := types.ExportConfig{
		Input:    viper.GetString("export.input"),
		Encoding: enc,
		Output:   viper.GetString("export.output"),
		Format:   types.ExportFormat(viper.GetString("export.format")),
	}
	if cfg.Format != types.ExportJSON && cfg.Format != types.ExportYAML {
		return fmt.Errorf("unsupported format %q: use json or yaml", cfg.Format)
	}

	dbPath, _ := cmd.Flags().GetString("db")
	verses, source, err := loadVerses(cmd.Context(), cfg, dbPath)
	if err != nil {
		return err
	}

	if strip, _ := cmd.Flags().GetBool("strip"); strip {
		s := newStripper()
		for i := range verses {
			verses[i] = s.StripVerse(verses[i])
		}
	}

	bible := export.Build(verses)
	if err := export.WriteFile(cfg.Output, bible, cfg.Format); err != nil {
		return err
	}
	logger.Info("exported",
		zap.String("source", source),
		zap.String("output", cfg.Output),
		zap.Int("books", len(bible.Books)),
		zap.Int("verses", len(bible.Verses)))
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d verses in %d books to %s\n",
		len(bible.Verses), len(bible.Books), cfg.Output)
	return nil
}

func loadVerses(ctx context.Context, cfg types.ExportConfig, dbPath string) ([]types.Verse, string, error) {
	if dbPath != "" {
		store, err := docstore.NewSQLite(dbPath)
		if err != nil {
			return nil, "", err
		}
		defer store.Close()
		verses, err := store.All(ctx)
		return verses, store.Name(), err
	}

	f, err := os.Open(cfg.Input)
	if err != nil {
		return nil, "", fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()
	verses, err := dataset.ReadVerses(f, cfg.Encoding)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", cfg.Input, err)
	}
	return verses, cfg.Input, nil
}
