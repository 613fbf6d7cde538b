// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/verse-prep/internal/httputil"
	"github.com/pdiddy/verse-prep/pkg/types"
)

const (
	firestoreBaseURL = "https://firestore.googleapis.com/v1"
	defaultUserAgent = "verse-prep/0.1"
)

// FirestoreRESTOptions configures the Firestore REST backend.
type FirestoreRESTOptions struct {
	Client *http.Client

	// Endpoint overrides the REST base URL (tests, emulator).
	Endpoint string

	ProjectID  string
	Collection string

	// Token is an OAuth2 bearer token with datastore scope.
	Token string

	UserAgent  string
	MaxRetries int
	Logger     *zap.Logger
}

// FirestoreREST writes verses through the documents:commit REST endpoint
// with a bearer token, for hosts that have an access token but no service
// account key. Each Put is one commit, so a batch is applied atomically.
type FirestoreREST struct {
	opts FirestoreRESTOptions
}

var _ Store = (*FirestoreREST)(nil)

// NewFirestoreREST returns a Firestore REST backend.
func NewFirestoreREST(opts FirestoreRESTOptions) *FirestoreREST {
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	if opts.Endpoint == "" {
		opts.Endpoint = firestoreBaseURL
	}
	opts.Endpoint = strings.TrimRight(opts.Endpoint, "/")
	if opts.Collection == "" {
		opts.Collection = DefaultCollection
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &FirestoreREST{opts: opts}
}

// Name implements Store.
func (f *FirestoreREST) Name() string {
	return "firestore-rest:" + f.opts.ProjectID + "/" + f.opts.Collection
}

// Close implements Store.
func (f *FirestoreREST) Close() error { return nil }

func (f *FirestoreREST) database() string {
	return "projects/" + f.opts.ProjectID + "/databases/(default)"
}

// DocumentName returns the full resource name of a verse document.
func (f *FirestoreREST) DocumentName(v types.Verse) string {
	return f.database() + "/documents/" + f.opts.Collection + "/" + v.Key()
}

type firestoreValue struct {
	IntegerValue *string `json:"integerValue,omitempty"`
	StringValue  *string `json:"stringValue,omitempty"`
}

func intValue(n int) firestoreValue {
	s := strconv.Itoa(n)
	return firestoreValue{IntegerValue: &s}
}

func stringValue(s string) firestoreValue {
	return firestoreValue{StringValue: &s}
}

type firestoreDocument struct {
	Name   string                    `json:"name"`
	Fields map[string]firestoreValue `json:"fields"`
}

type firestoreWrite struct {
	Update firestoreDocument `json:"update"`
}

type commitRequest struct {
	Writes []firestoreWrite `json:"writes"`
}

func (f *FirestoreREST) document(v types.Verse) firestoreDocument {
	return firestoreDocument{
		Name: f.DocumentName(v),
		Fields: map[string]firestoreValue{
			"verseId":    intValue(v.VerseID),
			"bookName":   stringValue(v.BookName),
			"bookNumber": intValue(v.BookNumber),
			"chapter":    intValue(v.Chapter),
			"verse":      intValue(v.Verse),
			"text":       stringValue(v.Text),
		},
	}
}

// Put commits verses as one set of document writes. Batches larger than
// FirestoreMaxWrites are rejected by the API, so they are rejected here.
func (f *FirestoreREST) Put(ctx context.Context, verses []types.Verse) error {
	if len(verses) == 0 {
		return nil
	}
	if len(verses) > FirestoreMaxWrites {
		return fmt.Errorf("firestore: batch of %d exceeds %d writes", len(verses), FirestoreMaxWrites)
	}

	req := commitRequest{Writes: make([]firestoreWrite, len(verses))}
	for i, v := range verses {
		req.Writes[i] = firestoreWrite{Update: f.document(v)}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("firestore: encoding commit: %w", err)
	}

	url := f.opts.Endpoint + "/" + f.database() + "/documents:commit"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("firestore: building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", f.opts.UserAgent)
	if f.opts.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+f.opts.Token)
	}

	resp, err := httputil.DoWithRetry(ctx, f.opts.Client, httpReq, f.opts.MaxRetries, f.opts.Logger)
	if err != nil {
		return fmt.Errorf("firestore: commit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("firestore: commit: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}
