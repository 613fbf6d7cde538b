// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads document store credentials from a directory of
// plain-text files. Each file in the directory represents one secret: the
// filename is the key name and the file contents (trimmed) are the value.
//
// Supported key files: firestore-project-id, firestore-service-account
// (a service account key in JSON), firestore-access-token, postgres-dsn.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Known secret names.
const (
	FirestoreProjectID      = "firestore-project-id"
	FirestoreServiceAccount = "firestore-service-account"
	FirestoreAccessToken    = "firestore-access-token"
	PostgresDSN             = "postgres-dsn"
)

// ErrMissing is returned by Require when a secret is absent.
var ErrMissing = errors.New("missing secret")

// Secrets maps secret names to values.
type Secrets map[string]string

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged as warnings but do not abort.
func Load(dir string, logger *zap.Logger) (Secrets, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Secrets{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(Secrets)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("could not read secret", zap.String("name", name), zap.Error(err))
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Get returns override when it is non-empty, otherwise the named secret.
func (s Secrets) Get(name, override string) string {
	if override != "" {
		return override
	}
	return s[name]
}

// Require checks that every named secret is present.
func (s Secrets) Require(names ...string) error {
	var missing []string
	for _, n := range names {
		if s[n] == "" {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s (add a file per key under .secrets/)", ErrMissing, strings.Join(missing, ", "))
	}
	return nil
}

// Names returns the loaded secret names in sorted order. Values are never
// exposed for display.
func (s Secrets) Names() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
