// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the verse-prep pipeline:
// the Verse record that flows from the CSV dataset into the document store
// and the bible.json export, and the configuration of each stage.
package types

import "strconv"

// CSV column names of the verse dataset.
const (
	ColumnVerseID    = "Verse ID"
	ColumnBookName   = "Book Name"
	ColumnBookNumber = "Book Number"
	ColumnChapter    = "Chapter"
	ColumnVerse      = "Verse"
	ColumnText       = "Text"
)

// VerseColumns lists the columns a dataset must carry to be decoded into
// Verse records, in dataset order.
var VerseColumns = []string{
	ColumnVerseID,
	ColumnBookName,
	ColumnBookNumber,
	ColumnChapter,
	ColumnVerse,
	ColumnText,
}

// Verse is one row of the dataset. VerseID is the primary key; it is
// unique across the dataset and used as the document key in every store.
type Verse struct {
	// VerseID uniquely identifies the verse (e.g. 1001001 for Genesis 1:1).
	VerseID int `json:"verseId" yaml:"verse_id"`

	// BookName is the display name of the book (e.g. "Genesis").
	BookName string `json:"bookName" yaml:"book_name"`

	// BookNumber is the canonical book order, 1 for Genesis.
	BookNumber int `json:"bookNumber" yaml:"book_number"`

	Chapter int `json:"chapter" yaml:"chapter"`

	// Verse is the verse number within the chapter.
	Verse int `json:"verse" yaml:"verse"`

	// Text is the verse text. Raw datasets may carry a leading heading.
	Text string `json:"text" yaml:"text"`
}

// Key returns the document key for the verse.
func (v Verse) Key() string {
	return strconv.Itoa(v.VerseID)
}

// Reference formats the verse as "Book Chapter:Verse".
func (v Verse) Reference() string {
	return v.BookName + " " + strconv.Itoa(v.Chapter) + ":" + strconv.Itoa(v.Verse)
}
