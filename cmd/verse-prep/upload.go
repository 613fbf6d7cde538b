// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/verse-prep/internal/dataset"
	"github.com/pdiddy/verse-prep/internal/docstore"
	"github.com/pdiddy/verse-prep/internal/upload"
	"github.com/pdiddy/verse-prep/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "verse-prep/0.1"
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Load verses into a document store",
	Long: `Upload reads the verse dataset, strips subheadings from the text (unless
--no-strip is given), and writes one document per verse keyed by its Verse
ID. Writes are committed in batches of at most 500.

Backends: sqlite (local file, full-text searchable), postgres (DSN from
--dsn or the postgres-dsn secret), firestore (Cloud Firestore client with a
service account key from --credentials or the firestore-service-account
secret; honors FIRESTORE_EMULATOR_HOST), and firestore-rest (REST commits
with the firestore-project-id and firestore-access-token secrets).`,
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().String("input", "net.csv", "dataset CSV to load")
	uploadCmd.Flags().String("encoding", "latin-1", "input encoding: utf-8, latin-1, or windows-1252")
	uploadCmd.Flags().String("backend", "sqlite", "document store: sqlite, postgres, firestore, or firestore-rest")
	uploadCmd.Flags().Int("batch-size", upload.DefaultBatchSize, "verses per commit (max 500)")
	uploadCmd.Flags().Int("concurrency", 1, "batches committed at once")
	uploadCmd.Flags().Bool("no-strip", false, "upload text without removing subheadings")
	uploadCmd.Flags().String("collection", docstore.DefaultCollection, "collection or table name")
	uploadCmd.Flags().String("db", "verses.db", "sqlite database path")
	uploadCmd.Flags().String("dsn", "", "postgres connection string (default: postgres-dsn secret)")
	uploadCmd.Flags().String("project", "", "firestore project id (default: firestore-project-id secret)")
	uploadCmd.Flags().String("credentials", "", "firestore service account key file (default: firestore-service-account secret)")
	uploadCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	uploadCmd.Flags().Int("max-retries", 0, "retries on HTTP 429/503 (default 5)")

	bindFlags(uploadCmd, map[string]string{
		"input":       "upload.input",
		"encoding":    "upload.encoding",
		"backend":     "upload.store.backend",
		"batch-size":  "upload.batch_size",
		"concurrency": "upload.concurrency",
		"collection":  "upload.store.collection",
		"db":          "upload.store.path",
		"dsn":         "upload.store.dsn",
		"project":     "upload.store.project_id",
		"credentials": "upload.store.credentials_file",
		"timeout":     "upload.store.timeout",
		"max-retries": "upload.store.max_retries",
	})

	rootCmd.AddCommand(uploadCmd)
}

func uploadConfig(cmd *cobra.Command) (types.UploadConfig, error) {
	enc, err := dataset.ParseEncoding(viper.GetString("upload.encoding"))
	if err != nil {
		return types.UploadConfig{}, err
	}
	noStrip, _ := cmd.Flags().GetBool("no-strip")

	timeout := viper.GetDuration("upload.store.timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return types.UploadConfig{
		Input:       viper.GetString("upload.input"),
		Encoding:    enc,
		BatchSize:   viper.GetInt("upload.batch_size"),
		Concurrency: viper.GetInt("upload.concurrency"),
		SkipStrip:   noStrip,
		Store: types.StoreConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:    timeout,
				UserAgent:  defaultUserAgent,
				MaxRetries: viper.GetInt("upload.store.max_retries"),
			},
			Backend:         types.StoreBackend(viper.GetString("upload.store.backend")),
			Path:            viper.GetString("upload.store.path"),
			DSN:             viper.GetString("upload.store.dsn"),
			ProjectID:       viper.GetString("upload.store.project_id"),
			CredentialsFile: viper.GetString("upload.store.credentials_file"),
			Collection:      viper.GetString("upload.store.collection"),
			Endpoint:        viper.GetString("upload.store.endpoint"),
		},
	}, nil
}

func runUpload(cmd *cobra.Command, args []string) error {
	cfg, err := uploadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, err := docstore.Open(ctx, cfg.Store, loadedSecrets, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := upload.Run(ctx, cfg, store, newStripper(), cmd.OutOrStdout(), logger)
	upload.PrintSummary(cmd.OutOrStdout(), summary)
	return err
}
