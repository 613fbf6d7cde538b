// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/verse-prep/internal/clean"
	"github.com/pdiddy/verse-prep/internal/dataset"
	"github.com/pdiddy/verse-prep/pkg/types"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove subheadings from the Text column of a verse CSV",
	Long: `Clean reads the verse dataset, strips any leading subheading from the
Text column of every row, and writes the result. All other columns and the
row order are preserved. The output is replaced only when the run succeeds.

Use --dry-run with --report to review which headings would be removed.`,
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().String("input", "net.csv", "dataset CSV to clean")
	cleanCmd.Flags().String("output", "net_cleaned.csv", "cleaned CSV to write (may equal --input)")
	cleanCmd.Flags().String("encoding", "utf-8", "input encoding: utf-8, latin-1, or windows-1252")
	cleanCmd.Flags().String("text-column", types.ColumnText, "header of the column to clean")
	cleanCmd.Flags().Bool("dry-run", false, "report changes without writing output")
	cleanCmd.Flags().Bool("report", false, "print every removed heading")

	bindFlags(cleanCmd, map[string]string{
		"input":       "clean.input",
		"output":      "clean.output",
		"encoding":    "clean.encoding",
		"text-column": "clean.text_column",
	})

	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	enc, err := dataset.ParseEncoding(viper.GetString("clean.encoding"))
	if err != nil {
		return err
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	report, _ := cmd.Flags().GetBool("report")

	cfg := types.CleanConfig{
		Input:      viper.GetString("clean.input"),
		Output:     viper.GetString("clean.output"),
		Encoding:   enc,
		TextColumn: viper.GetString("clean.text_column"),
		DryRun:     dryRun,
	}

	var reportTo io.Writer
	if report {
		reportTo = cmd.OutOrStdout()
	}

	summary, err := clean.Run(cmd.Context(), cfg, newStripper(), reportTo, logger)
	if err != nil {
		return err
	}
	clean.PrintSummary(cmd.OutOrStdout(), summary)
	if !cfg.DryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "Cleaned data written to %s\n", cfg.Output)
	}
	return nil
}
