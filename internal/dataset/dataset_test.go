// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dataset

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/verse-prep/pkg/types"
)

const sampleCSV = `Verse ID,Book Name,Book Number,Chapter,Verse,Text
1001001,Genesis,1,1,1,"The Creation of the World. In the beginning God created the heavens and the earth."
1001002,Genesis,1,1,2,"Now the earth was without shape and empty, and darkness was over the surface of the watery deep."
19023001,Psalms,19,23,1,"Title Here. The LORD is my shepherd."
`

func TestParseEncoding(t *testing.T) {
	tests := []struct {
		in      string
		want    types.Encoding
		wantErr bool
	}{
		{"", types.EncodingUTF8, false},
		{"UTF-8", types.EncodingUTF8, false},
		{"latin1", types.EncodingLatin1, false},
		{"ISO-8859-1", types.EncodingLatin1, false},
		{"cp1252", EncodingWindows1252, false},
		{"ebcdic", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEncoding(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReaderRows(t *testing.T) {
	r, err := NewReader(strings.NewReader(sampleCSV), types.EncodingUTF8)
	require.NoError(t, err)

	assert.Equal(t, types.VerseColumns, r.Header())
	i, ok := r.Index(types.ColumnText)
	require.True(t, ok)
	assert.Equal(t, 5, i)

	var lines []int
	for {
		row, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		lines = append(lines, row.Line)
		assert.Len(t, row.Fields, 6)
	}
	assert.Equal(t, []int{2, 3, 4}, lines)
}

func TestReaderEmpty(t *testing.T) {
	_, err := NewReader(strings.NewReader(""), types.EncodingUTF8)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestRequireMissingColumn(t *testing.T) {
	r, err := NewReader(strings.NewReader("Verse ID,Body\n1,x\n"), types.EncodingUTF8)
	require.NoError(t, err)

	err = r.Require(types.ColumnText, types.ColumnVerseID)
	require.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), `"Text"`)
	assert.NotContains(t, err.Error(), `"Verse ID"`)
}

func TestReaderStripsBOM(t *testing.T) {
	in := "\ufeffVerse ID,Text\n1,hello\n"
	r, err := NewReader(strings.NewReader(in), types.EncodingUTF8)
	require.NoError(t, err)
	_, ok := r.Index(types.ColumnVerseID)
	assert.True(t, ok)
}

func TestReaderLatin1(t *testing.T) {
	// "Text" row holds "café" encoded as ISO-8859-1.
	in := []byte("Verse ID,Text\n1,caf\xe9\n")
	r, err := NewReader(bytes.NewReader(in), types.EncodingLatin1)
	require.NoError(t, err)

	row, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "café", row.Fields[1])
}

func TestReaderSanitizesInvalidUTF8(t *testing.T) {
	in := []byte("Verse ID,Text\n1,bad\xffbyte\n")
	r, err := NewReader(bytes.NewReader(in), types.EncodingUTF8)
	require.NoError(t, err)

	row, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "bad\ufffdbyte", row.Fields[1])
}

func TestReadVerses(t *testing.T) {
	verses, err := ReadVerses(strings.NewReader(sampleCSV), types.EncodingUTF8)
	require.NoError(t, err)
	require.Len(t, verses, 3)

	want := types.Verse{
		VerseID:    19023001,
		BookName:   "Psalms",
		BookNumber: 19,
		Chapter:    23,
		Verse:      1,
		Text:       "Title Here. The LORD is my shepherd.",
	}
	if diff := cmp.Diff(want, verses[2]); diff != "" {
		t.Errorf("verse mismatch (-want +got):\n%s", diff)
	}
}

func TestReadVersesErrors(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantIs  error
		wantMsg string
	}{
		{
			name:   "missing column",
			in:     "Verse ID,Book Name,Chapter,Verse,Text\n1,Genesis,1,1,x\n",
			wantIs: ErrMissingColumn,
		},
		{
			name:   "duplicate id",
			in:     "Verse ID,Book Name,Book Number,Chapter,Verse,Text\n1,Genesis,1,1,1,a\n1,Genesis,1,1,2,b\n",
			wantIs: ErrDuplicateVerseID,
		},
		{
			name:    "bad integer",
			in:      "Verse ID,Book Name,Book Number,Chapter,Verse,Text\n1,Genesis,one,1,1,a\n",
			wantMsg: `line 2: column "Book Number"`,
		},
		{
			name:    "short row",
			in:      "Verse ID,Book Name,Book Number,Chapter,Verse,Text\n1,Genesis,1\n",
			wantMsg: "expected at least 6 fields",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadVerses(strings.NewReader(tt.in), types.EncodingUTF8)
			require.Error(t, err)
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestWriterRoundTrip(t *testing.T) {
	verses, err := ReadVerses(strings.NewReader(sampleCSV), types.EncodingUTF8)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).WriteVerses(verses))

	again, err := ReadVerses(&buf, types.EncodingUTF8)
	require.NoError(t, err)
	if diff := cmp.Diff(verses, again); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
