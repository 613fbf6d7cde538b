// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docstore

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/verse-prep/internal/httputil"
	"github.com/pdiddy/verse-prep/internal/secrets"
	"github.com/pdiddy/verse-prep/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

func sampleVerses() []types.Verse {
	return []types.Verse{
		{VerseID: 1001001, BookName: "Genesis", BookNumber: 1, Chapter: 1, Verse: 1,
			Text: "In the beginning God created the heavens and the earth."},
		{VerseID: 19023001, BookName: "Psalms", BookNumber: 19, Chapter: 23, Verse: 1,
			Text: "The LORD is my shepherd, I shall not want."},
		{VerseID: 43011035, BookName: "John", BookNumber: 43, Chapter: 11, Verse: 35,
			Text: "Jesus wept."},
	}
}

// --- sqlite ---

func testSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "index", "verses.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewSQLiteCreatesSchema(t *testing.T) {
	s := testSQLite(t)

	var count int
	require.NoError(t, s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='verses'`,
	).Scan(&count))
	assert.Equal(t, 1, count)

	_, err := os.Stat(s.path)
	assert.NoError(t, err)
}

func TestSQLitePutAndGet(t *testing.T) {
	s := testSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, sampleVerses()))

	got, err := s.Get(ctx, 19023001)
	require.NoError(t, err)
	assert.Equal(t, sampleVerses()[1], got)

	_, err = s.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLitePutIsUpsert(t *testing.T) {
	s := testSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, sampleVerses()))
	updated := sampleVerses()
	updated[2].Text = "Jesus wept openly."
	require.NoError(t, s.Put(ctx, updated))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	all, err := s.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, updated, all)
}

func TestSQLiteSearch(t *testing.T) {
	s := testSQLite(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, sampleVerses()))

	got, err := s.Search(ctx, "shepherd", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 19023001, got[0].VerseID)

	// The index follows updates.
	updated := sampleVerses()[1]
	updated.Text = "The LORD is my keeper."
	require.NoError(t, s.Put(ctx, []types.Verse{updated}))

	got, err = s.Search(ctx, "shepherd", 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.Search(ctx, "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLiteReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verses.db")
	s, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(context.Background(), sampleVerses()))
	require.NoError(t, s.Close())

	s, err = NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

// --- firestore-rest ---

type commitCapture struct {
	calls  int32
	bodies []commitRequest
	auth   []string
	paths  []string
}

func firestoreServer(t *testing.T, c *commitCapture, status func(n int32) int) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&c.calls, 1)
		data, _ := io.ReadAll(r.Body)
		var req commitRequest
		_ = json.Unmarshal(data, &req)
		c.bodies = append(c.bodies, req)
		c.auth = append(c.auth, r.Header.Get("Authorization"))
		c.paths = append(c.paths, r.URL.Path)
		w.WriteHeader(status(n))
		_, _ = w.Write([]byte(`{"commitTime":"2026-10-19T00:00:00Z"}`))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestFirestoreRESTPut(t *testing.T) {
	var c commitCapture
	ts := firestoreServer(t, &c, func(int32) int { return http.StatusOK })

	f := NewFirestoreREST(FirestoreRESTOptions{
		Client:    ts.Client(),
		Endpoint:  ts.URL,
		ProjectID: "bible-guesser",
		Token:     "tok",
	})
	require.NoError(t, f.Put(context.Background(), sampleVerses()))

	require.Len(t, c.bodies, 1)
	assert.Equal(t, "/projects/bible-guesser/databases/(default)/documents:commit", c.paths[0])
	assert.Equal(t, "Bearer tok", c.auth[0])

	writes := c.bodies[0].Writes
	require.Len(t, writes, 3)
	doc := writes[1].Update
	assert.Equal(t, "projects/bible-guesser/databases/(default)/documents/verses/19023001", doc.Name)
	assert.Equal(t, "19023001", *doc.Fields["verseId"].IntegerValue)
	assert.Equal(t, "Psalms", *doc.Fields["bookName"].StringValue)
	assert.Equal(t, "19", *doc.Fields["bookNumber"].IntegerValue)
	assert.Equal(t, "23", *doc.Fields["chapter"].IntegerValue)
	assert.Equal(t, "1", *doc.Fields["verse"].IntegerValue)
	assert.Equal(t, "The LORD is my shepherd, I shall not want.", *doc.Fields["text"].StringValue)
}

func TestFirestoreRESTRetriesRateLimit(t *testing.T) {
	var c commitCapture
	ts := firestoreServer(t, &c, func(n int32) int {
		if n == 1 {
			return http.StatusTooManyRequests
		}
		return http.StatusOK
	})

	f := NewFirestoreREST(FirestoreRESTOptions{Client: ts.Client(), Endpoint: ts.URL, ProjectID: "p", MaxRetries: 3})
	require.NoError(t, f.Put(context.Background(), sampleVerses()))
	assert.Equal(t, int32(2), atomic.LoadInt32(&c.calls))
	assert.Equal(t, c.bodies[0], c.bodies[1])
}

func TestFirestoreRESTErrorStatus(t *testing.T) {
	var c commitCapture
	ts := firestoreServer(t, &c, func(int32) int { return http.StatusForbidden })

	f := NewFirestoreREST(FirestoreRESTOptions{Client: ts.Client(), Endpoint: ts.URL, ProjectID: "p"})
	err := f.Put(context.Background(), sampleVerses())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}

func TestFirestoreRESTBatchLimit(t *testing.T) {
	f := NewFirestoreREST(FirestoreRESTOptions{ProjectID: "p"})
	err := f.Put(context.Background(), make([]types.Verse, FirestoreMaxWrites+1))
	require.Error(t, err)
	assert.NoError(t, f.Put(context.Background(), nil))
}

// --- firestore ---

func TestVerseFields(t *testing.T) {
	assert.Equal(t, map[string]any{
		"verseId":    19023001,
		"bookName":   "Psalms",
		"bookNumber": 19,
		"chapter":    23,
		"verse":      1,
		"text":       "The LORD is my shepherd, I shall not want.",
	}, verseFields(sampleVerses()[1]))
}

func TestFirestoreClientOptions(t *testing.T) {
	assert.Empty(t, FirestoreOptions{}.clientOptions())
	assert.Len(t, FirestoreOptions{CredentialsFile: "key.json"}.clientOptions(), 1)
	assert.Len(t, FirestoreOptions{CredentialsJSON: []byte("{}"), UserAgent: "verse-prep/0.1"}.clientOptions(), 2)
	// The key file wins over an inline key.
	assert.Len(t, FirestoreOptions{CredentialsFile: "key.json", CredentialsJSON: []byte("{}")}.clientOptions(), 1)
}

func TestOpenFirestoreBadCredentials(t *testing.T) {
	t.Setenv(EmulatorHostEnv, "")
	ctx := context.Background()

	_, err := Open(ctx, types.StoreConfig{
		Backend:         types.BackendFirestore,
		ProjectID:       "bible-guesser",
		CredentialsFile: filepath.Join(t.TempDir(), "serviceAccountKey.json"),
	}, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "firestore: connecting")

	_, err = Open(ctx, types.StoreConfig{Backend: types.BackendFirestore, ProjectID: "bible-guesser"},
		secrets.Secrets{secrets.FirestoreServiceAccount: "not a key"}, nil)
	require.Error(t, err)
}

func TestFirestoreEmulator(t *testing.T) {
	if os.Getenv(EmulatorHostEnv) == "" {
		t.Skip(EmulatorHostEnv + " not set")
	}
	ctx := context.Background()

	f, err := NewFirestore(ctx, FirestoreOptions{ProjectID: "verse-prep-test", Collection: "verses_test"})
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, "firestore:verse-prep-test/verses_test", f.Name())

	require.NoError(t, f.Put(ctx, sampleVerses()))
	updated := sampleVerses()
	updated[2].Text = "Jesus wept openly."
	require.NoError(t, f.Put(ctx, updated))

	got, err := f.Get(ctx, 43011035)
	require.NoError(t, err)
	assert.Equal(t, updated[2], got)

	_, err = f.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	err = f.Put(ctx, make([]types.Verse, FirestoreMaxWrites+1))
	assert.Error(t, err)
}

// --- open ---

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, types.StoreConfig{Backend: types.BackendSQLite, Path: filepath.Join(t.TempDir(), "v.db")}, nil, nil)
	require.NoError(t, err)
	assert.Contains(t, s.Name(), "sqlite:")
	require.NoError(t, s.Close())

	_, err = Open(ctx, types.StoreConfig{Backend: types.BackendSQLite}, nil, nil)
	assert.Error(t, err)

	_, err = Open(ctx, types.StoreConfig{Backend: types.BackendFirestoreREST}, secrets.Secrets{}, nil)
	assert.ErrorIs(t, err, secrets.ErrMissing)

	_, err = Open(ctx, types.StoreConfig{Backend: types.BackendFirestoreREST, ProjectID: "p"}, secrets.Secrets{}, nil)
	assert.ErrorIs(t, err, secrets.ErrMissing)

	fs, err := Open(ctx, types.StoreConfig{Backend: types.BackendFirestoreREST, Collection: "kjv"},
		secrets.Secrets{secrets.FirestoreProjectID: "p", secrets.FirestoreAccessToken: "t"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "firestore-rest:p/kjv", fs.Name())

	_, err = Open(ctx, types.StoreConfig{Backend: types.BackendPostgres}, secrets.Secrets{}, nil)
	assert.ErrorIs(t, err, secrets.ErrMissing)

	_, err = Open(ctx, types.StoreConfig{Backend: "mongo"}, nil, nil)
	assert.Error(t, err)
}

// --- postgres ---

func TestPostgres(t *testing.T) {
	dsn := os.Getenv("VERSE_PREP_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("VERSE_PREP_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	p, err := ConnectPostgres(ctx, dsn, "verses_test")
	require.NoError(t, err)
	defer p.Close()
	require.NoError(t, p.Init(ctx))
	_, err = p.pool.Exec(ctx, `TRUNCATE verses_test`)
	require.NoError(t, err)

	require.NoError(t, p.Put(ctx, sampleVerses()))
	require.NoError(t, p.Put(ctx, sampleVerses()))

	n, err := p.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := p.Get(ctx, 43011035)
	require.NoError(t, err)
	assert.Equal(t, sampleVerses()[2], got)

	_, err = p.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}
