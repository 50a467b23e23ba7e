package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var ErrMissingRequired = errors.New("missing required configuration")

type Config struct {
	DBHost string `envconfig:"DB_HOST" default:"postgres"`
	DBPort int    `envconfig:"DB_PORT" default:"5432"`
	DBUser string `envconfig:"DB_USER" default:"docschat"`
	DBPass string `envconfig:"DB_PASS" default:"password"`
	DBName string `envconfig:"DB_NAME" default:"docschat"`

	WeaviateHost   string `envconfig:"WEAVIATE_HOST" default:"localhost:8080"`
	WeaviateScheme string `envconfig:"WEAVIATE_SCHEME" default:"http"`
	CollectionName string `envconfig:"COLLECTION_NAME" default:"DocumentChunk"`

	GeminiAPIKey    string   `envconfig:"GEMINI_API_KEY"`
	EmbedModels     []string `envconfig:"EMBED_MODELS" default:"gemini-embedding-001,text-embedding-004"`
	GenerationModel string   `envconfig:"GENERATION_MODEL" default:"gemini-1.5-flash"`
	Temperature     float32  `envconfig:"GENERATION_TEMPERATURE" default:"0.3"`
	MaxOutputTokens int32    `envconfig:"GENERATION_MAX_TOKENS" default:"1000"`
	SystemPrompt    string   `envconfig:"SYSTEM_PROMPT" default:"You are the documentation expert for this site. Answer strictly using the provided documentation context or highlighted text. Cite sources."`

	// Ingestion
	BaseURL         string        `envconfig:"BASE_URL"`
	ModuleTag       string        `envconfig:"MODULE_TAG" default:"docs"`
	ContentTypeTag  string        `envconfig:"CONTENT_TYPE_TAG" default:"documentation"`
	FetchDelay      time.Duration `envconfig:"FETCH_DELAY" default:"500ms"`
	FetchTimeout    time.Duration `envconfig:"FETCH_TIMEOUT" default:"30s"`
	EmbedBatchSize  int           `envconfig:"EMBED_BATCH_SIZE" default:"96"`
	EmbedBatchDelay time.Duration `envconfig:"EMBED_BATCH_DELAY" default:"1s"`
	UpsertBatchSize int           `envconfig:"UPSERT_BATCH_SIZE" default:"20"`
	UpsertDelay     time.Duration `envconfig:"UPSERT_DELAY" default:"500ms"`

	// Prompt assembly
	HighlightPlacement string `envconfig:"HIGHLIGHT_PLACEMENT" default:"after"`
	MaxSelections      int    `envconfig:"MAX_SELECTIONS" default:"3"`
	MaxHistoryMessages int    `envconfig:"MAX_HISTORY_MESSAGES" default:"5"`
	ExcerptChars       int    `envconfig:"EXCERPT_CHARS" default:"500"`
	RetrievalLimit     int    `envconfig:"RETRIEVAL_LIMIT" default:"3"`
	CitationLimit      int    `envconfig:"CITATION_LIMIT" default:"3"`

	// Server
	ServerPort     int           `envconfig:"SERVER_PORT" default:"8081"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"60s"`
	AllowedOrigins []string      `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	QueryLogPath   string        `envconfig:"QUERY_LOG_PATH" default:"data/logs/query.log"`
	MigrationPath  string        `envconfig:"MIGRATION_PATH" default:"file://migrations"`

	// Resilience
	BootstrapRetryAttempts uint          `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelay    time.Duration `envconfig:"BOOTSTRAP_RETRY_DELAY" default:"2s"`
}

func Load() (*Config, error) {
	// Try loading .env from current dir and repo root.
	// Ignore errors, as env vars might be set in the shell.
	_ = godotenv.Load(".env")

	cwd, _ := os.Getwd()
	rootEnv := filepath.Join(cwd, "../.env")
	_ = godotenv.Load(rootEnv)

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY", ErrMissingRequired)
	}
	if c.DBHost == "" {
		return fmt.Errorf("%w: DB_HOST", ErrMissingRequired)
	}
	if c.DBUser == "" {
		return fmt.Errorf("%w: DB_USER", ErrMissingRequired)
	}
	if c.DBName == "" {
		return fmt.Errorf("%w: DB_NAME", ErrMissingRequired)
	}
	if c.WeaviateHost == "" {
		return fmt.Errorf("%w: WEAVIATE_HOST", ErrMissingRequired)
	}
	if len(c.EmbedModels) == 0 {
		return fmt.Errorf("%w: EMBED_MODELS", ErrMissingRequired)
	}
	if c.HighlightPlacement != "before" && c.HighlightPlacement != "after" {
		return fmt.Errorf("HIGHLIGHT_PLACEMENT must be \"before\" or \"after\", got %q", c.HighlightPlacement)
	}
	// Zero or negative bounds would silently disable prompt trimming.
	if c.MaxSelections <= 0 {
		return fmt.Errorf("MAX_SELECTIONS must be positive, got %d", c.MaxSelections)
	}
	if c.MaxHistoryMessages <= 0 {
		return fmt.Errorf("MAX_HISTORY_MESSAGES must be positive, got %d", c.MaxHistoryMessages)
	}
	if c.ExcerptChars <= 0 {
		return fmt.Errorf("EXCERPT_CHARS must be positive, got %d", c.ExcerptChars)
	}
	if c.RetrievalLimit <= 0 {
		return fmt.Errorf("RETRIEVAL_LIMIT must be positive, got %d", c.RetrievalLimit)
	}
	if c.CitationLimit <= 0 {
		return fmt.Errorf("CITATION_LIMIT must be positive, got %d", c.CitationLimit)
	}
	return nil
}

// ValidateIngest covers the extra settings the ingestion binary needs.
func (c *Config) ValidateIngest() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: BASE_URL", ErrMissingRequired)
	}
	return nil
}
