package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	OpenAIAPIKey        string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL       string `envconfig:"OPENAI_BASE_URL"`
	EmbeddingModel      string `envconfig:"EMBEDDING_MODEL"`
	EmbeddingDimensions int    `envconfig:"EMBEDDING_DIMENSIONS" default:"1536"`
	ChatModel           string `envconfig:"CHAT_MODEL"`

	ChunkSize        int `envconfig:"CHUNK_SIZE" default:"1000"`
	ChunkOverlap     int `envconfig:"CHUNK_OVERLAP" default:"200"`
	TopK             int `envconfig:"TOP_K" default:"3"`
	MaxSources       int `envconfig:"MAX_SOURCES" default:"3"`
	EmbedConcurrency int `envconfig:"EMBED_CONCURRENCY" default:"4"`

	// Where index snapshots are written when S3 is not configured.
	SnapshotDir      string `envconfig:"SNAPSHOT_DIR" default:"data"`
	SnapshotKey      string `envconfig:"SNAPSHOT_KEY" default:"index.snapshot"`
	SnapshotInterval int    `envconfig:"SNAPSHOT_INTERVAL_SECONDS" default:"30"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"docq-snapshots"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	// Comma-separated token:owner pairs, e.g. "tok-a:alice,tok-b:bob".
	APITokens string `envconfig:"API_TOKENS"`

	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("DOCQ", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

// Tokens parses APITokens into a token-to-owner map. Malformed entries are
// skipped rather than failing startup.
func (c *Config) Tokens() map[string]string {
	tokens := make(map[string]string)
	for _, pair := range strings.Split(c.APITokens, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		token, owner, ok := strings.Cut(pair, ":")
		if !ok || token == "" || owner == "" {
			continue
		}
		tokens[token] = owner
	}
	return tokens
}
