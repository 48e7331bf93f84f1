// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (SPROUT_ prefix, runtime override)
//  2. Config file (~/.sprout/config.yaml)
//  3. Default values
//
// Validation is comprehensive and fail-fast: a configuration the
// selector or matcher cannot run with (for example an empty topic
// vocabulary) is rejected at startup, not at request time.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Sentinel errors for configuration validation, checked with errors.Is().
var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrEmptyTopicVocabulary indicates no topics are configured for
	// idea generation fallback.
	ErrEmptyTopicVocabulary = errors.New("empty topic vocabulary")

	// ErrInvalidTopic indicates a configured topic is malformed.
	ErrInvalidTopic = errors.New("invalid topic")

	// ErrInvalidSimilarityThreshold indicates the match threshold is
	// outside [0, 1].
	ErrInvalidSimilarityThreshold = errors.New("invalid similarity threshold")

	// ErrInvalidTopK indicates the match top-K is not positive.
	ErrInvalidTopK = errors.New("invalid top k")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")
)

const (
	// DefaultEmbedderModel is the default Gemini embedder model.
	// Output is truncated to EmbeddingDimension via OutputDimensionality.
	DefaultEmbedderModel = "gemini-embedding-001"

	// EmbeddingDimension is the fixed dimensionality of template and
	// query embeddings. Must match the vector(N) column in the
	// template_embeddings migration.
	EmbeddingDimension = 1536

	// DefaultSimilarityThreshold is the minimum similarity for a
	// template to count as a match. Quality gate, not correctness:
	// an empty result set is acceptable.
	DefaultSimilarityThreshold = 0.4

	// DefaultMatchTopK is the default number of nearest templates
	// fetched from the embedding index.
	DefaultMatchTopK = 3

	// DefaultRecentWindowDays bounds the "recently seen" context window
	// fed back into generation prompts.
	DefaultRecentWindowDays = 3

	// DefaultRecentLimit bounds how many recent ideas are included in
	// the generation exclusion context.
	DefaultRecentLimit = 6
)

// Config stores application configuration.
type Config struct {
	// AI provider and model configuration
	ModelName   string  `mapstructure:"model_name"`
	Temperature float32 `mapstructure:"temperature"`

	// Embedding configuration
	EmbedderModel string `mapstructure:"embedder_model"`

	// Idea selection
	Topics           []string `mapstructure:"topics"`
	RecentWindowDays int      `mapstructure:"recent_window_days"`
	RecentLimit      int      `mapstructure:"recent_limit"`

	// Template matching
	MatchTopK           int     `mapstructure:"match_top_k"`
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
	EnrichConcurrency   int     `mapstructure:"enrich_concurrency"`

	// GitHub metadata enrichment
	GitHubToken string `mapstructure:"github_token"` // SENSITIVE: never logged

	// Storage configuration (see storage.go)
	PostgresHost     string `mapstructure:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"` // SENSITIVE: never logged
	PostgresDBName   string `mapstructure:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode"`

	// HTTP server
	ListenAddr string `mapstructure:"listen_addr"`

	// Tracing (see internal/observability)
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	Environment  string `mapstructure:"environment"`
	ServiceName  string `mapstructure:"service_name"`
}

// Load reads configuration from defaults, the config file, and the
// environment, then validates the result.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if dir, err := configDir(); err == nil {
		v.AddConfigPath(dir)
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix("SPROUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Missing file is fine: defaults + env are enough.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults registers default values for all settings.
func setDefaults(v *viper.Viper) {
	v.SetDefault("model_name", "gemini-2.5-flash")
	v.SetDefault("temperature", 0.9)
	v.SetDefault("embedder_model", DefaultEmbedderModel)

	v.SetDefault("topics", []string{
		"fitness", "finance", "education", "productivity",
		"travel", "music", "gaming", "sustainability",
	})
	v.SetDefault("recent_window_days", DefaultRecentWindowDays)
	v.SetDefault("recent_limit", DefaultRecentLimit)

	v.SetDefault("match_top_k", DefaultMatchTopK)
	v.SetDefault("similarity_threshold", DefaultSimilarityThreshold)
	v.SetDefault("enrich_concurrency", 4)

	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "sprout")
	v.SetDefault("postgres_db_name", "sprout")
	v.SetDefault("postgres_ssl_mode", "disable")

	v.SetDefault("listen_addr", "127.0.0.1:3500")

	v.SetDefault("environment", "dev")
	v.SetDefault("service_name", "sprout")
}

// configDir returns the sprout configuration directory (~/.sprout).
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".sprout"), nil
}
