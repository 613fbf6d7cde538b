// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/verse-prep/internal/docstore"
	"github.com/pdiddy/verse-prep/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Full-text search over verses in a sqlite store",
	Long: `Search queries the full-text index of a sqlite store written by
"upload --backend sqlite". Results are ranked best match first.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("db", "verses.db", "sqlite database path")
	searchCmd.Flags().String("query", "", "full-text search query")
	searchCmd.Flags().Int("max-results", 20, "maximum number of results to return")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query, _ := cmd.Flags().GetString("query")
	if query == "" && len(args) > 0 {
		query = strings.Join(args, " ")
	}
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("provide a search query")
	}
	dbPath, _ := cmd.Flags().GetString("db")
	limit, _ := cmd.Flags().GetInt("max-results")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	store, err := docstore.NewSQLite(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	results, err := store.Search(cmd.Context(), query, limit)
	if err != nil {
		return err
	}
	return formatSearchOutput(cmd.OutOrStdout(), results, jsonOutput)
}

func formatSearchOutput(w io.Writer, results []types.Verse, jsonOutput bool) error {
	if jsonOutput {
		if results == nil {
			results = []types.Verse{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	fmt.Fprintf(w, "%-4s  %-22s  %s\n", "Rank", "Reference", "Text")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for i, v := range results {
		text := v.Text
		if r := []rune(text); len(r) > 70 {
			text = string(r[:67]) + "..."
		}
		fmt.Fprintf(w, "%-4d  %-22s  %s\n", i+1, v.Reference(), text)
	}
	fmt.Fprintf(w, "\n%d results\n", len(results))
	return nil
}
