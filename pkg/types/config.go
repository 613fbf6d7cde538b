package types

import "time"

// HTTPConfig holds shared HTTP settings used by stores that talk to a
// remote API.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "verse-prep/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxRetries is the number of retries on HTTP 429 and 503 (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// Encoding names the character encoding of an input dataset.
type Encoding string

const (
	EncodingUTF8   Encoding = "utf-8"
	EncodingLatin1 Encoding = "latin-1"
)

// StripConfig tunes subheading detection. Zero values select the built-in
// defaults.
type StripConfig struct {
	// Density selects the lowercase measure: "sentence" (default) counts
	// letters of words that break title case, "lowercase" counts every
	// lowercase letter.
	Density string `json:"density,omitempty" yaml:"density,omitempty"`

	// LowercaseThreshold is the lowercase count at which a candidate stops
	// being heading-like (default 1 for sentence, 5 for lowercase).
	LowercaseThreshold int `json:"lowercase_threshold" yaml:"lowercase_threshold"`

	// MaxHeadingLength bounds the heading length in characters (default 100).
	MaxHeadingLength int `json:"max_heading_length" yaml:"max_heading_length"`

	// MinBodyMargin is how much longer than the heading the remaining verse
	// must be (default 10).
	MinBodyMargin int `json:"min_body_margin" yaml:"min_body_margin"`

	// MinHeadingWords is the fewest words a heading may have (default 2).
	MinHeadingWords int `json:"min_heading_words" yaml:"min_heading_words"`

	// KnownPrefixes are literal artifacts removed from the start of a verse
	// (e.g. "test 123 ").
	KnownPrefixes []string `json:"known_prefixes,omitempty" yaml:"known_prefixes,omitempty"`
}

// CleanConfig holds settings for the clean stage.
type CleanConfig struct {
	// Input is the raw dataset CSV.
	Input string `json:"input" yaml:"input"`

	// Output is the cleaned CSV. It is replaced atomically.
	Output string `json:"output" yaml:"output"`

	// Encoding of Input; output is always UTF-8.
	Encoding Encoding `json:"encoding" yaml:"encoding"`

	// TextColumn is the header of the column to clean (default "Text").
	TextColumn string `json:"text_column" yaml:"text_column"`

	// DryRun reports changes without writing Output.
	DryRun bool `json:"dry_run" yaml:"dry_run"`
}

// StoreBackend identifies a document store implementation.
type StoreBackend string

const (
	BackendSQLite        StoreBackend = "sqlite"
	BackendPostgres      StoreBackend = "postgres"
	BackendFirestore     StoreBackend = "firestore"
	BackendFirestoreREST StoreBackend = "firestore-rest"
)

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	HTTPConfig `yaml:",inline"`

	// Backend selects the store: sqlite, postgres, firestore, or
	// firestore-rest.
	Backend StoreBackend `json:"backend" yaml:"backend"`

	// Path is the SQLite database file.
	Path string `json:"path" yaml:"path"`

	// DSN is the Postgres connection string. Falls back to the postgres-dsn
	// secret.
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty"`

	// ProjectID is the Firestore project. Falls back to the
	// firestore-project-id secret.
	ProjectID string `json:"project_id,omitempty" yaml:"project_id,omitempty"`

	// CredentialsFile is the Firestore service account key. When empty the
	// firestore-service-account secret, then application default
	// credentials, are used.
	CredentialsFile string `json:"credentials_file,omitempty" yaml:"credentials_file,omitempty"`

	// Collection is the document collection or table name (default "verses").
	Collection string `json:"collection" yaml:"collection"`

	// Endpoint overrides the base URL of the firestore-rest backend.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
}

// UploadConfig holds settings for the upload stage.
type UploadConfig struct {
	// Input is the dataset CSV to load.
	Input string `json:"input" yaml:"input"`

	Encoding Encoding `json:"encoding" yaml:"encoding"`

	// BatchSize is the number of writes per commit (default 499, max 500).
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// Concurrency is the number of batches committed at once (default 1).
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// SkipStrip uploads the text as read, without heading removal.
	SkipStrip bool `json:"skip_strip" yaml:"skip_strip"`

	Store StoreConfig `json:"store" yaml:"store"`
}

// ExportFormat selects the export output format.
type ExportFormat string

const (
	ExportJSON ExportFormat = "json"
	ExportYAML ExportFormat = "yaml"
)

// ExportConfig holds settings for the export stage.
type ExportConfig struct {
	Input    string       `json:"input" yaml:"input"`
	Encoding Encoding     `json:"encoding" yaml:"encoding"`
	Output   string       `json:"output" yaml:"output"`
	Format   ExportFormat `json:"format" yaml:"format"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Strip  StripConfig  `json:"strip" yaml:"strip"`
	Clean  CleanConfig  `json:"clean" yaml:"clean"`
	Upload UploadConfig `json:"upload" yaml:"upload"`
	Export ExportConfig `json:"export" yaml:"export"`
}
