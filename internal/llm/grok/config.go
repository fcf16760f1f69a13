package grok

import (
	"strings"
	"time"
)

// Config holds the xAI client configuration.
type Config struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	MaxTokens int           `mapstructure:"max_output_tokens"`

	// MaxInflight bounds simultaneously in-flight upstream requests
	// across the whole process.
	MaxInflight int64 `mapstructure:"max_inflight"`

	// ReasoningModel reports whether a model accepts the reasoning
	// parameter. Nil falls back to DefaultReasoningModel.
	ReasoningModel func(model string) bool `mapstructure:"-"`
}

// DefaultConfig returns sensible defaults for the xAI API.
func DefaultConfig() Config {
	return Config{
		BaseURL:     "https://api.x.ai/v1",
		Timeout:     2 * time.Minute,
		MaxTokens:   16000,
		MaxInflight: 5,
	}
}

// DefaultReasoningModel matches xAI's reasoning-capable model names.
func DefaultReasoningModel(model string) bool {
	return strings.Contains(model, "reasoning")
}
