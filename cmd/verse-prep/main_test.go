// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"runtime/debug"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/verse-prep/pkg/types"
)

func TestStripLines(t *testing.T) {
	in := strings.NewReader("The Lord Is My Shepherd. The LORD is my shepherd, I shall not want.\nJesus wept.\n")
	s := newStripper()

	var got []string
	require.NoError(t, stripLines(in, func(text string) {
		got = append(got, s.Strip(text))
	}))
	assert.Equal(t, []string{"The LORD is my shepherd, I shall not want.", "Jesus wept."}, got)
}

func TestStripConfigFromViper(t *testing.T) {
	viper.Set("strip.max_heading_length", 50)
	viper.Set("strip.known_prefixes", []string{"test 123 "})
	t.Cleanup(viper.Reset)

	cfg := stripConfig()
	assert.Equal(t, 50, cfg.MaxHeadingLength)
	assert.Equal(t, []string{"test 123 "}, cfg.KnownPrefixes)

	assert.Equal(t, "In the beginning God created the heavens and the earth.",
		newStripper().Strip("test 123 In the beginning God created the heavens and the earth."))
}

func TestStripDensityFromViper(t *testing.T) {
	t.Cleanup(viper.Reset)
	text := "He wept. Then he rose and walked away into the distance."

	viper.Set("strip.density", "lowercase")
	assert.Equal(t, "lowercase", stripConfig().Density)
	assert.Equal(t, text, newStripper().Strip(text))
	assert.Equal(t, "The LORD is my shepherd; I shall not want.",
		newStripper().Strip("Psalm 23. The LORD is my shepherd; I shall not want."))

	viper.Set("strip.density", "sentence")
	assert.Equal(t, "Psalm 23. The LORD is my shepherd; I shall not want.",
		newStripper().Strip("Psalm 23. The LORD is my shepherd; I shall not want."))
}

func TestFormatSearchOutput(t *testing.T) {
	results := []types.Verse{{
		VerseID: 19023001, BookName: "Psalms", BookNumber: 19, Chapter: 23, Verse: 1,
		Text: "The LORD is my shepherd, I shall not want.",
	}}

	var buf bytes.Buffer
	require.NoError(t, formatSearchOutput(&buf, results, false))
	assert.Contains(t, buf.String(), "Psalms 23:1")
	assert.Contains(t, buf.String(), "1 results")

	buf.Reset()
	require.NoError(t, formatSearchOutput(&buf, nil, false))
	assert.Equal(t, "No results found.\n", buf.String())

	buf.Reset()
	require.NoError(t, formatSearchOutput(&buf, nil, true))
	assert.JSONEq(t, "[]", buf.String())

	buf.Reset()
	require.NoError(t, formatSearchOutput(&buf, results, true))
	var decoded []types.Verse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, results, decoded)
}

func TestResolveVersion(t *testing.T) {
	tests := []struct {
		name    string
		ldflags string
		info    *debug.BuildInfo
		want    string
	}{
		{"ldflags win", "v1.2.0", &debug.BuildInfo{Main: debug.Module{Version: "v0.9.0"}}, "v1.2.0"},
		{"no build info", "dev", nil, "dev"},
		{"module version", "dev", &debug.BuildInfo{Main: debug.Module{Version: "v0.3.1"}}, "v0.3.1"},
		{"vcs revision", "dev", &debug.BuildInfo{
			Main: debug.Module{Version: "(devel)"},
			Settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "0123456789abcdef0123"},
				{Key: "vcs.modified", Value: "true"},
			},
		}, "dev-0123456789ab-dirty"},
		{"devel without vcs", "", &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}, "dev"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveVersion(tt.ldflags, tt.info))
		})
	}
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	t.Cleanup(func() { versionCmd.SetOut(nil) })

	versionCmd.Run(versionCmd, nil)
	assert.True(t, strings.HasPrefix(buf.String(), "verse-prep "))
	assert.NotEqual(t, "verse-prep \n", buf.String())
}
