// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		want  Secrets
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, FirestoreProjectID, "  bible-guesser  \n")
				writeFile(t, dir, FirestoreAccessToken, "ya29.token")
				writeFile(t, dir, PostgresDSN, "postgres://localhost/verses\n")
				return dir
			},
			want: Secrets{
				FirestoreProjectID:   "bible-guesser",
				FirestoreAccessToken: "ya29.token",
				PostgresDSN:          "postgres://localhost/verses",
			},
		},
		{
			name: "returns empty map for nonexistent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: Secrets{},
		},
		{
			name: "skips empty files",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, PostgresDSN, "dsn")
				writeFile(t, dir, "empty-key", "")
				writeFile(t, dir, "whitespace-only", "   \n\t  ")
				return dir
			},
			want: Secrets{PostgresDSN: "dsn"},
		},
		{
			name: "skips dotfiles and subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ".gitkeep", "")
				writeFile(t, dir, ".hidden-key", "secret")
				writeFile(t, dir, FirestoreProjectID, "p")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
				return dir
			},
			want: Secrets{FirestoreProjectID: "p"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.setup(t), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can read files without permission bits")
	}
	dir := t.TempDir()
	writeFile(t, dir, "good-key", "value123")

	badPath := filepath.Join(dir, "bad-key")
	require.NoError(t, os.WriteFile(badPath, []byte("secret"), 0o000))
	t.Cleanup(func() { os.Chmod(badPath, 0o644) })

	got, err := Load(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, "value123", got["good-key"])
	_, hasBad := got["bad-key"]
	assert.False(t, hasBad, "unreadable file should not appear in result")
}

func TestRequire(t *testing.T) {
	s := Secrets{FirestoreProjectID: "p"}

	require.NoError(t, s.Require(FirestoreProjectID))

	err := s.Require(FirestoreProjectID, FirestoreAccessToken, PostgresDSN)
	require.ErrorIs(t, err, ErrMissing)
	assert.Contains(t, err.Error(), "firestore-access-token, postgres-dsn")
}

func TestGetAndNames(t *testing.T) {
	s := Secrets{PostgresDSN: "from-file", FirestoreProjectID: "p"}

	assert.Equal(t, "from-flag", s.Get(PostgresDSN, "from-flag"))
	assert.Equal(t, "from-file", s.Get(PostgresDSN, ""))
	assert.Equal(t, "", s.Get(FirestoreAccessToken, ""))
	assert.Equal(t, []string{FirestoreProjectID, PostgresDSN}, s.Names())
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
