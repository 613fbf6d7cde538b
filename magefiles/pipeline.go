//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Pipeline groups the dataset preparation stages.
type Pipeline mg.Namespace

const (
	rawCSV     = "assets/net.csv"
	cleanedCSV = "assets/net_cleaned.csv"
	bibleJSON  = "assets/bible.json"
	verseDB    = "assets/verses.db"
)

// Clean strips subheadings from assets/net.csv into assets/net_cleaned.csv.
func (Pipeline) Clean() error {
	mg.Deps(Build)
	return sh.RunV(binPath, "clean", "--input", rawCSV, "--output", cleanedCSV)
}

// Index loads the cleaned dataset into the local sqlite store.
func (Pipeline) Index() error {
	mg.Deps(Build, Pipeline.Clean)
	return sh.RunV(binPath, "upload", "--input", cleanedCSV, "--encoding", "utf-8",
		"--backend", "sqlite", "--db", verseDB, "--no-strip")
}

// Export writes assets/bible.json from the cleaned dataset.
func (Pipeline) Export() error {
	mg.Deps(Build, Pipeline.Clean)
	return sh.RunV(binPath, "export", "--input", cleanedCSV, "--output", bibleJSON)
}

// All runs every stage.
func (Pipeline) All() {
	mg.SerialDeps(Pipeline.Clean, Pipeline.Index, Pipeline.Export)
}
