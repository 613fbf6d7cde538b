// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var stripCmd = &cobra.Command{
	Use:   "strip [text...]",
	Short: "Remove a leading subheading from verse text",
	Long: `Strip prints verse text with any leading subheading removed. The
arguments are joined into one verse; with no arguments each line of standard
input is treated as a verse.

Use --explain to print the detection method and removed heading for each
verse on standard error.`,
	RunE: runStrip,
}

func init() {
	stripCmd.Flags().Bool("explain", false, "report the detection method and removed heading on stderr")

	rootCmd.AddCommand(stripCmd)
}

func runStrip(cmd *cobra.Command, args []string) error {
	explain, _ := cmd.Flags().GetBool("explain")
	s := newStripper()

	emit := func(text string) {
		r := s.Detect(text)
		if explain && r.Stripped() {
			fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %q\n", r.Method, r.Heading)
		}
		fmt.Fprintln(cmd.OutOrStdout(), r.Text)
	}

	if len(args) > 0 {
		emit(strings.Join(args, " "))
		return nil
	}
	return stripLines(cmd.InOrStdin(), emit)
}

func stripLines(r io.Reader, emit func(string)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		emit(sc.Text())
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}
