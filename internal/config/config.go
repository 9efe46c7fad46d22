// Package config loads settings from the environment, with an optional .env
// file for local development.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/tabletop-tools/gm-assistant/internal/classifier"
)

// Config holds all runtime settings. Every field reads from the GM_ prefix,
// e.g. VaultPath from GM_VAULT_PATH.
type Config struct {
	VaultPath    string `envconfig:"VAULT_PATH" default:"./vault"`
	RulebookPath string `envconfig:"RULEBOOK_PATH" default:"./rulebooks"`
	StatePath    string `envconfig:"STATE_PATH" default:"./gm-state.db"`

	QdrantHost string `envconfig:"QDRANT_HOST" default:"localhost"`
	QdrantPort int    `envconfig:"QDRANT_PORT" default:"6334"`

	OpenAIAPIKey    string `envconfig:"OPENAI_API_KEY"`
	AnthropicAPIKey string `envconfig:"ANTHROPIC_API_KEY"`

	AnswerModel     string        `envconfig:"ANSWER_MODEL"`
	AnswerMaxTokens int           `envconfig:"ANSWER_MAX_TOKENS" default:"2048"`
	AnswerTimeout   time.Duration `envconfig:"ANSWER_TIMEOUT" default:"120s"`

	ContextMaxChars int `envconfig:"CONTEXT_MAX_CHARS" default:"24000"`
	ChunkMaxChars   int `envconfig:"CHUNK_MAX_CHARS" default:"1500"`
	ChunkMinChars   int `envconfig:"CHUNK_MIN_CHARS" default:"20"`

	SimpleDocs     int `envconfig:"SIMPLE_DOCS" default:"5"`
	ModerateDocs   int `envconfig:"MODERATE_DOCS" default:"12"`
	ComplexDocs    int `envconfig:"COMPLEX_DOCS" default:"20"`
	ExhaustiveDocs int `envconfig:"EXHAUSTIVE_DOCS" default:"30"`

	LongQuestionWords     int `envconfig:"LONG_QUESTION_WORDS" default:"12"`
	VeryLongQuestionWords int `envconfig:"VERY_LONG_QUESTION_WORDS" default:"24"`

	Verbose bool `envconfig:"VERBOSE" default:"false"`
}

// Load reads .env if present, then the environment. A missing .env is not an
// error; malformed or invalid values are.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("GM", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	if err := c.TierLimits().Validate(); err != nil {
		return err
	}
	if c.ChunkMaxChars <= c.ChunkMinChars {
		return fmt.Errorf("chunk max chars (%d) must exceed min chars (%d)",
			c.ChunkMaxChars, c.ChunkMinChars)
	}
	if c.ContextMaxChars <= 0 {
		return fmt.Errorf("context max chars must be positive, got %d", c.ContextMaxChars)
	}
	return nil
}

// TierLimits maps the configured per-tier counts into classifier limits.
func (c *Config) TierLimits() classifier.Limits {
	return classifier.Limits{
		Simple:     c.SimpleDocs,
		Moderate:   c.ModerateDocs,
		Complex:    c.ComplexDocs,
		Exhaustive: c.ExhaustiveDocs,
	}
}

// Thresholds maps the configured word-count cutoffs.
func (c *Config) Thresholds() classifier.Thresholds {
	return classifier.Thresholds{
		LongQuestionWords:     c.LongQuestionWords,
		VeryLongQuestionWords: c.VeryLongQuestionWords,
	}
}
