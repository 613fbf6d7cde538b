// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dataset reads and writes the verse dataset CSV. It is the row
// source and row sink of the clean and upload stages.
//
// Rows are kept as raw string fields so a rewrite leaves every column other
// than the one being cleaned exactly as it was read. DecodeVerse turns a
// row into a types.Verse for stages that need typed fields.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/pdiddy/verse-prep/pkg/types"
)

var (
	// ErrMissingColumn is returned when the header lacks a required column.
	ErrMissingColumn = errors.New("missing required column")

	// ErrDuplicateVerseID is returned when two rows share a verse id.
	ErrDuplicateVerseID = errors.New("duplicate verse id")

	// ErrEmpty is returned for an input with no header row.
	ErrEmpty = errors.New("dataset has no header row")
)

// EncodingWindows1252 is accepted in addition to the encodings named in
// pkg/types; some exports of the dataset use it.
const EncodingWindows1252 types.Encoding = "windows-1252"

// ParseEncoding normalizes an encoding name. An empty name means UTF-8.
func ParseEncoding(name string) (types.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return types.EncodingUTF8, nil
	case "latin-1", "latin1", "iso-8859-1", "iso8859-1":
		return types.EncodingLatin1, nil
	case "windows-1252", "cp1252":
		return EncodingWindows1252, nil
	}
	return "", fmt.Errorf("unsupported encoding %q (want utf-8, latin-1, or windows-1252)", name)
}

// decoder returns the transformer that turns enc into UTF-8. Invalid UTF-8
// input is replaced with U+FFFD and a leading byte order mark is dropped.
func decoder(enc types.Encoding) (*encoding.Decoder, error) {
	switch enc {
	case "", types.EncodingUTF8:
		return &encoding.Decoder{Transformer: unicode.BOMOverride(unicode.UTF8.NewDecoder())}, nil
	case types.EncodingLatin1:
		return charmap.ISO8859_1.NewDecoder(), nil
	case EncodingWindows1252:
		return charmap.Windows1252.NewDecoder(), nil
	}
	return nil, fmt.Errorf("unsupported encoding %q", enc)
}

// Row is one data record of the dataset.
type Row struct {
	// Line is the 1-based line number of the record in the input.
	Line int

	Fields []string
}

// Reader is the CSV row source.
type Reader struct {
	cr     *csv.Reader
	header []string
	index  map[string]int
}

// NewReader decodes r with enc and reads the header row.
func NewReader(r io.Reader, enc types.Encoding) (*Reader, error) {
	dec, err := decoder(enc)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(transform.NewReader(r, dec))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.TrimSpace(h)
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}

	return &Reader{cr: cr, header: header, index: index}, nil
}

// Header returns the header row as read.
func (r *Reader) Header() []string {
	return r.header
}

// Index returns the position of column in the header.
func (r *Reader) Index(column string) (int, bool) {
	i, ok := r.index[column]
	return i, ok
}

// Require checks that every column is present in the header.
func (r *Reader) Require(columns ...string) error {
	var missing []string
	for _, c := range columns {
		if _, ok := r.index[c]; !ok {
			missing = append(missing, strconv.Quote(c))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nil
}

// Next returns the next data row, or io.EOF after the last one.
func (r *Reader) Next() (Row, error) {
	fields, err := r.cr.Read()
	if err != nil {
		if err == io.EOF {
			return Row{}, io.EOF
		}
		return Row{}, fmt.Errorf("reading row: %w", err)
	}
	line, _ := r.cr.FieldPos(0)
	return Row{Line: line, Fields: fields}, nil
}

// VerseIndex holds the header positions of the verse columns.
type VerseIndex struct {
	VerseID, BookName, BookNumber, Chapter, Verse, Text int
}

func (x VerseIndex) max() int {
	return max(x.VerseID, x.BookName, x.BookNumber, x.Chapter, x.Verse, x.Text)
}

// VerseIndex resolves the verse columns, failing with ErrMissingColumn if
// any is absent.
func (r *Reader) VerseIndex() (VerseIndex, error) {
	if err := r.Require(types.VerseColumns...); err != nil {
		return VerseIndex{}, err
	}
	return VerseIndex{
		VerseID:    r.index[types.ColumnVerseID],
		BookName:   r.index[types.ColumnBookName],
		BookNumber: r.index[types.ColumnBookNumber],
		Chapter:    r.index[types.ColumnChapter],
		Verse:      r.index[types.ColumnVerse],
		Text:       r.index[types.ColumnText],
	}, nil
}

// DecodeVerse converts a row into a Verse.
func DecodeVerse(row Row, x VerseIndex) (types.Verse, error) {
	if len(row.Fields) <= x.max() {
		return types.Verse{}, fmt.Errorf("line %d: expected at least %d fields, got %d", row.Line, x.max()+1, len(row.Fields))
	}

	var (
		v   types.Verse
		err error
	)
	atoi := func(column string, i int) int {
		if err != nil {
			return 0
		}
		n, e := strconv.Atoi(strings.TrimSpace(row.Fields[i]))
		if e != nil {
			err = fmt.Errorf("line %d: column %q: %w", row.Line, column, e)
		}
		return n
	}

	v.VerseID = atoi(types.ColumnVerseID, x.VerseID)
	v.BookNumber = atoi(types.ColumnBookNumber, x.BookNumber)
	v.Chapter = atoi(types.ColumnChapter, x.Chapter)
	v.Verse = atoi(types.ColumnVerse, x.Verse)
	if err != nil {
		return types.Verse{}, err
	}
	v.BookName = row.Fields[x.BookName]
	v.Text = row.Fields[x.Text]
	return v, nil
}

// ReadVerses decodes every row of r. Verse ids must be unique.
func ReadVerses(r io.Reader, enc types.Encoding) ([]types.Verse, error) {
	rd, err := NewReader(r, enc)
	if err != nil {
		return nil, err
	}
	x, err := rd.VerseIndex()
	if err != nil {
		return nil, err
	}

	var verses []types.Verse
	seen := make(map[int]int)
	for {
		row, err := rd.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		v, err := DecodeVerse(row, x)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[v.VerseID]; dup {
			return nil, fmt.Errorf("%w: %d on lines %d and %d", ErrDuplicateVerseID, v.VerseID, prev, row.Line)
		}
		seen[v.VerseID] = row.Line
		verses = append(verses, v)
	}
	return verses, nil
}

// Writer is the CSV row sink. Output is always UTF-8.
type Writer struct {
	cw *csv.Writer
}

// NewWriter returns a Writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{cw: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader(header []string) error {
	return w.cw.Write(header)
}

// Write writes one row.
func (w *Writer) Write(row Row) error {
	return w.cw.Write(row.Fields)
}

// WriteVerses writes a header and one row per verse in VerseColumns order.
func (w *Writer) WriteVerses(verses []types.Verse) error {
	if err := w.WriteHeader(types.VerseColumns); err != nil {
		return err
	}
	for _, v := range verses {
		fields := []string{
			strconv.Itoa(v.VerseID),
			v.BookName,
			strconv.Itoa(v.BookNumber),
			strconv.Itoa(v.Chapter),
			strconv.Itoa(v.Verse),
			v.Text,
		}
		if err := w.cw.Write(fields); err != nil {
			return err
		}
	}
	return w.Flush()
}

// Flush writes buffered rows and reports any write error.
func (w *Writer) Flush() error {
	w.cw.Flush()
	return w.cw.Error()
}
