package config

import (
	"fmt"
	"strings"
)

// validSSLModes are the SSL modes accepted by PostgreSQL.
var validSSLModes = map[string]struct{}{
	"disable":     {},
	"allow":       {},
	"prefer":      {},
	"require":     {},
	"verify-ca":   {},
	"verify-full": {},
}

// Validate checks the whole configuration and returns the first error
// found. Called at startup; an invalid configuration never reaches the
// request path.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if strings.TrimSpace(c.ModelName) == "" {
		return fmt.Errorf("%w: model name must not be empty", ErrInvalidModelName)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: %v (must be in [0, 2])", ErrInvalidTemperature, c.Temperature)
	}
	if strings.TrimSpace(c.EmbedderModel) == "" {
		return fmt.Errorf("%w: embedder model must not be empty", ErrInvalidEmbedderModel)
	}

	if err := c.validateTopics(); err != nil {
		return err
	}
	if c.RecentWindowDays <= 0 {
		return fmt.Errorf("recent_window_days must be positive, got %d", c.RecentWindowDays)
	}
	if c.RecentLimit <= 0 {
		return fmt.Errorf("recent_limit must be positive, got %d", c.RecentLimit)
	}

	if c.MatchTopK <= 0 {
		return fmt.Errorf("%w: %d (must be positive)", ErrInvalidTopK, c.MatchTopK)
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: %v (must be in [0, 1])", ErrInvalidSimilarityThreshold, c.SimilarityThreshold)
	}
	if c.EnrichConcurrency <= 0 {
		return fmt.Errorf("enrich_concurrency must be positive, got %d", c.EnrichConcurrency)
	}

	return c.validateStorage()
}

// validateTopics checks the topic vocabulary used for generation
// fallback. An empty vocabulary is a configuration error: the selector
// would have no topic to generate against when the caller supplies none.
func (c *Config) validateTopics() error {
	if len(c.Topics) == 0 {
		return ErrEmptyTopicVocabulary
	}
	seen := make(map[string]struct{}, len(c.Topics))
	for _, topic := range c.Topics {
		trimmed := strings.TrimSpace(topic)
		if trimmed == "" {
			return fmt.Errorf("%w: blank topic in vocabulary", ErrInvalidTopic)
		}
		if len(trimmed) > 60 {
			return fmt.Errorf("%w: %q exceeds 60 characters", ErrInvalidTopic, trimmed)
		}
		key := strings.ToLower(trimmed)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: duplicate topic %q", ErrInvalidTopic, trimmed)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// validateStorage checks the PostgreSQL connection settings.
func (c *Config) validateStorage() error {
	if strings.TrimSpace(c.PostgresHost) == "" {
		return fmt.Errorf("%w: host must not be empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: %d (must be 1-65535)", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if strings.TrimSpace(c.PostgresDBName) == "" {
		return fmt.Errorf("%w: database name must not be empty", ErrInvalidPostgresDBName)
	}
	if _, ok := validSSLModes[c.PostgresSSLMode]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidPostgresSSLMode, c.PostgresSSLMode)
	}
	return nil
}
