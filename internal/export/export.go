// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export builds the bible.json asset served to the verse-guessing
// front end: a list of books with their chapter and verse layout, and the
// flat list of verses.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/verse-prep/pkg/types"
)

// Book describes one book's layout. Chapters[i] lists the verse numbers of
// chapter i+1.
type Book struct {
	Name     string  `json:"name" yaml:"name"`
	Chapters [][]int `json:"chapters" yaml:"chapters"`
	Abbrev   string  `json:"abbrev" yaml:"abbrev"`
}

// Verse is the front end's verse record.
type Verse struct {
	Book    string `json:"book" yaml:"book"`
	Chapter int    `json:"chapter" yaml:"chapter"`
	Verse   int    `json:"verse" yaml:"verse"`
	Text    string `json:"text" yaml:"text"`
}

// Bible is the exported document.
type Bible struct {
	Books  []Book  `json:"books" yaml:"books"`
	Verses []Verse `json:"verses" yaml:"verses"`
}

// abbrevs holds the standard short names indexed by book number - 1.
var abbrevs = []string{
	"Gen", "Exod", "Lev", "Num", "Deut", "Josh", "Judg", "Ruth", "1Sam", "2Sam",
	"1Kgs", "2Kgs", "1Chr", "2Chr", "Ezra", "Neh", "Esth", "Job", "Ps", "Prov",
	"Eccl", "Song", "Isa", "Jer", "Lam", "Ezek", "Dan", "Hos", "Joel", "Amos",
	"Obad", "Jonah", "Mic", "Nah", "Hab", "Zeph", "Hag", "Zech", "Mal",
	"Matt", "Mark", "Luke", "John", "Acts", "Rom", "1Cor", "2Cor", "Gal", "Eph",
	"Phil", "Col", "1Thess", "2Thess", "1Tim", "2Tim", "Titus", "Phlm", "Heb", "Jas",
	"1Pet", "2Pet", "1John", "2John", "3John", "Jude", "Rev",
}

// Abbrev returns the short name for a book. Books outside the 66-book
// canon use the first three letters of their name.
func Abbrev(number int, name string) string {
	if number >= 1 && number <= len(abbrevs) {
		return abbrevs[number-1]
	}
	compact := strings.ReplaceAll(name, " ", "")
	r := []rune(compact)
	if len(r) > 3 {
		r = r[:3]
	}
	return string(r)
}

// Build groups verses into books ordered by book number. Verses are
// emitted in canonical order regardless of input order.
func Build(verses []types.Verse) Bible {
	sorted := make([]types.Verse, len(verses))
	copy(sorted, verses)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.BookNumber != b.BookNumber {
			return a.BookNumber < b.BookNumber
		}
		if a.Chapter != b.Chapter {
			return a.Chapter < b.Chapter
		}
		return a.Verse < b.Verse
	})

	bible := Bible{Books: []Book{}, Verses: make([]Verse, 0, len(sorted))}
	var current *Book
	currentNumber := 0
	for _, v := range sorted {
		if current == nil || v.BookNumber != currentNumber {
			bible.Books = append(bible.Books, Book{
				Name:     v.BookName,
				Chapters: [][]int{},
				Abbrev:   Abbrev(v.BookNumber, v.BookName),
			})
			current = &bible.Books[len(bible.Books)-1]
			currentNumber = v.BookNumber
		}
		if v.Chapter >= 1 {
			for len(current.Chapters) < v.Chapter {
				current.Chapters = append(current.Chapters, []int{})
			}
			ch := &current.Chapters[v.Chapter-1]
			*ch = append(*ch, v.Verse)
		}
		bible.Verses = append(bible.Verses, Verse{
			Book:    v.BookName,
			Chapter: v.Chapter,
			Verse:   v.Verse,
			Text:    v.Text,
		})
	}
	return bible
}

// WriteJSON writes b as indented JSON.
func WriteJSON(w io.Writer, b Bible) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}

// WriteYAML writes b as YAML.
func WriteYAML(w io.Writer, b Bible) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// Write encodes b in format.
func Write(w io.Writer, b Bible, format types.ExportFormat) error {
	switch format {
	case types.ExportJSON, "":
		return WriteJSON(w, b)
	case types.ExportYAML:
		return WriteYAML(w, b)
	}
	return fmt.Errorf("unsupported format %q: use json or yaml", format)
}

// WriteFile encodes b to path, replacing any existing file only after the
// new content is fully written.
func WriteFile(path string, b Bible, format types.ExportFormat) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".export-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, b, format); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}
