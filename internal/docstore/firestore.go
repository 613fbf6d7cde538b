// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docstore

import (
	"context"
	"errors"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/pdiddy/verse-prep/pkg/types"
)

const (
	// FirestoreMaxWrites is the per-commit write limit of Firestore.
	FirestoreMaxWrites = 500

	// EmulatorHostEnv is read by the client library; when set, the client
	// connects to the emulator at that address without credentials.
	EmulatorHostEnv = "FIRESTORE_EMULATOR_HOST"
)

// FirestoreOptions configures the Firestore client backend.
type FirestoreOptions struct {
	// ProjectID is the Google Cloud project. Empty detects it from the
	// credentials.
	ProjectID  string
	Collection string

	// CredentialsFile is a service account key file (serviceAccountKey.json).
	CredentialsFile string

	// CredentialsJSON is a service account key, used when CredentialsFile is
	// empty. With neither set the client uses application default
	// credentials.
	CredentialsJSON []byte

	UserAgent string
	Logger    *zap.Logger
}

func (o FirestoreOptions) clientOptions() []option.ClientOption {
	var opts []option.ClientOption
	switch {
	case o.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(o.CredentialsFile))
	case len(o.CredentialsJSON) > 0:
		opts = append(opts, option.WithCredentialsJSON(o.CredentialsJSON))
	}
	if o.UserAgent != "" {
		opts = append(opts, option.WithUserAgent(o.UserAgent))
	}
	return opts
}

// Firestore writes verses with the Cloud Firestore client library. Each Put
// is flushed through a BulkWriter and waits for every write to finish.
type Firestore struct {
	client     *firestore.Client
	project    string
	collection string
	logger     *zap.Logger
}

var _ Store = (*Firestore)(nil)

// NewFirestore connects to Firestore.
func NewFirestore(ctx context.Context, opts FirestoreOptions) (*Firestore, error) {
	if opts.Collection == "" {
		opts.Collection = DefaultCollection
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	project := opts.ProjectID
	if project == "" {
		project = firestore.DetectProjectID
	}

	client, err := firestore.NewClient(ctx, project, opts.clientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("firestore: connecting: %w", err)
	}
	if host := os.Getenv(EmulatorHostEnv); host != "" {
		opts.Logger.Info("using firestore emulator", zap.String("host", host))
	}
	return &Firestore{
		client:     client,
		project:    opts.ProjectID,
		collection: opts.Collection,
		logger:     opts.Logger,
	}, nil
}

// Name implements Store.
func (f *Firestore) Name() string {
	project := f.project
	if project == "" {
		project = "(detected)"
	}
	return "firestore:" + project + "/" + f.collection
}

// Close implements Store.
func (f *Firestore) Close() error {
	return f.client.Close()
}

// verseFields is the stored document for v.
func verseFields(v types.Verse) map[string]any {
	return map[string]any{
		"verseId":    v.VerseID,
		"bookName":   v.BookName,
		"bookNumber": v.BookNumber,
		"chapter":    v.Chapter,
		"verse":      v.Verse,
		"text":       v.Text,
	}
}

// firestoreVerse decodes a stored document.
type firestoreVerse struct {
	VerseID    int    `firestore:"verseId"`
	BookName   string `firestore:"bookName"`
	BookNumber int    `firestore:"bookNumber"`
	Chapter    int    `firestore:"chapter"`
	Verse      int    `firestore:"verse"`
	Text       string `firestore:"text"`
}

// Put sets one document per verse, replacing any existing document with
// the same key. Batches larger than FirestoreMaxWrites are rejected.
func (f *Firestore) Put(ctx context.Context, verses []types.Verse) error {
	if len(verses) == 0 {
		return nil
	}
	if len(verses) > FirestoreMaxWrites {
		return fmt.Errorf("firestore: batch of %d exceeds %d writes", len(verses), FirestoreMaxWrites)
	}

	coll := f.client.Collection(f.collection)
	bw := f.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(verses))
	for _, v := range verses {
		job, err := bw.Set(coll.Doc(v.Key()), verseFields(v))
		if err != nil {
			bw.End()
			return fmt.Errorf("firestore: queueing %s: %w", v.Key(), err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	var errs []error
	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", verses[i].Key(), err))
		}
	}
	if len(errs) > 0 {
		f.logger.Error("firestore writes failed", zap.Int("failed", len(errs)), zap.Int("batch", len(verses)))
		return fmt.Errorf("firestore: %d of %d writes failed: %w", len(errs), len(verses), errors.Join(errs...))
	}
	return nil
}

// Get returns the verse stored under id.
func (f *Firestore) Get(ctx context.Context, id int) (types.Verse, error) {
	key := types.Verse{VerseID: id}.Key()
	snap, err := f.client.Collection(f.collection).Doc(key).Get(ctx)
	if snap != nil && !snap.Exists() {
		return types.Verse{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return types.Verse{}, fmt.Errorf("firestore: reading %s: %w", key, err)
	}

	var doc firestoreVerse
	if err := snap.DataTo(&doc); err != nil {
		return types.Verse{}, fmt.Errorf("firestore: decoding %s: %w", key, err)
	}
	return types.Verse{
		VerseID:    doc.VerseID,
		BookName:   doc.BookName,
		BookNumber: doc.BookNumber,
		Chapter:    doc.Chapter,
		Verse:      doc.Verse,
		Text:       doc.Text,
	}, nil
}
