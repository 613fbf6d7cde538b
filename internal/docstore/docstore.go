// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package docstore persists Verse records in a keyed document store. Every
// backend upserts by VerseID, so loading the same dataset twice leaves one
// document per verse.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/pdiddy/verse-prep/internal/secrets"
	"github.com/pdiddy/verse-prep/pkg/types"
)

// DefaultCollection is the collection (or table) verses are written to.
const DefaultCollection = "verses"

// ErrNotFound is returned when a verse id has no document.
var ErrNotFound = errors.New("verse not found")

// Store is a document store that accepts batches of verses.
type Store interface {
	// Name identifies the backend in logs.
	Name() string

	// Put upserts verses keyed by VerseID. A batch is applied atomically
	// where the backend supports it.
	Put(ctx context.Context, verses []types.Verse) error

	Close() error
}

// Open returns the backend selected by cfg.Backend. Credentials missing
// from cfg are taken from sec.
func Open(ctx context.Context, cfg types.StoreConfig, sec secrets.Secrets, logger *zap.Logger) (Store, error) {
	collection := cfg.Collection
	if collection == "" {
		collection = DefaultCollection
	}

	switch cfg.Backend {
	case "", types.BackendSQLite:
		if cfg.Path == "" {
			return nil, fmt.Errorf("sqlite: no database path")
		}
		return NewSQLite(cfg.Path)

	case types.BackendPostgres:
		dsn := sec.Get(secrets.PostgresDSN, cfg.DSN)
		if dsn == "" {
			return nil, fmt.Errorf("postgres: %w", sec.Require(secrets.PostgresDSN))
		}
		pg, err := ConnectPostgres(ctx, dsn, collection)
		if err != nil {
			return nil, err
		}
		if err := pg.Init(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		return pg, nil

	case types.BackendFirestore:
		opts := FirestoreOptions{
			ProjectID:       sec.Get(secrets.FirestoreProjectID, cfg.ProjectID),
			Collection:      collection,
			CredentialsFile: cfg.CredentialsFile,
			UserAgent:       cfg.UserAgent,
			Logger:          logger,
		}
		if opts.CredentialsFile == "" && sec[secrets.FirestoreServiceAccount] != "" {
			opts.CredentialsJSON = []byte(sec[secrets.FirestoreServiceAccount])
		}
		return NewFirestore(ctx, opts)

	case types.BackendFirestoreREST:
		project := sec.Get(secrets.FirestoreProjectID, cfg.ProjectID)
		if project == "" {
			return nil, fmt.Errorf("firestore-rest: %w", sec.Require(secrets.FirestoreProjectID))
		}
		if err := sec.Require(secrets.FirestoreAccessToken); err != nil {
			return nil, fmt.Errorf("firestore-rest: %w", err)
		}
		client := &http.Client{Timeout: cfg.Timeout}
		return NewFirestoreREST(FirestoreRESTOptions{
			Client:     client,
			Endpoint:   cfg.Endpoint,
			ProjectID:  project,
			Collection: collection,
			Token:      sec[secrets.FirestoreAccessToken],
			UserAgent:  cfg.UserAgent,
			MaxRetries: cfg.MaxRetries,
			Logger:     logger,
		}), nil
	}

	return nil, fmt.Errorf("unknown store backend %q (want sqlite, postgres, firestore, or firestore-rest)", cfg.Backend)
}
