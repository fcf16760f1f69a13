// Package config loads the application configuration from a YAML file
// and GIGAGROK_* environment variables, and builds the logger from it.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/HerbHall/gigagrok/internal/access"
	"github.com/HerbHall/gigagrok/internal/chat"
	"github.com/HerbHall/gigagrok/internal/telegram"
	"github.com/HerbHall/gigagrok/internal/usage"
)

// XAI holds upstream API settings.
type XAI struct {
	APIKey          string        `mapstructure:"api_key"`
	BaseURL         string        `mapstructure:"base_url"`
	Model           string        `mapstructure:"model"`
	ModelFast       string        `mapstructure:"model_fast"`
	MaxOutputTokens int           `mapstructure:"max_output_tokens"`
	ReasoningEffort string        `mapstructure:"reasoning_effort"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// Database holds storage settings.
type Database struct {
	Path string `mapstructure:"path"`
}

// Health holds the health/metrics endpoint settings.
type Health struct {
	Addr string `mapstructure:"addr"`
}

// Logging holds logger settings.
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Config is the full application configuration tree.
type Config struct {
	XAI      XAI             `mapstructure:"xai"`
	Telegram telegram.Config `mapstructure:"telegram"`
	Access   access.Config   `mapstructure:"access"`
	Database Database        `mapstructure:"database"`
	Chat     chat.Config     `mapstructure:"chat"`
	Pricing  usage.Pricing   `mapstructure:"pricing"`
	Health   Health          `mapstructure:"health"`
	Logging  Logging         `mapstructure:"logging"`
}

// Load reads the config file at path (optional; env-only configuration
// works) plus GIGAGROK_* environment variables, applies defaults, and
// validates required keys.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("GIGAGROK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys without defaults must be bound explicitly or Unmarshal will
	// not see their environment values.
	for _, key := range []string{"xai.api_key", "telegram.token", "access.admin_id"} {
		v.MustBindEnv(key)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the keys the process cannot run without.
func (c *Config) Validate() error {
	if c.XAI.APIKey == "" {
		return fmt.Errorf("xai.api_key is required (or GIGAGROK_XAI_API_KEY)")
	}
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required (or GIGAGROK_TELEGRAM_TOKEN)")
	}
	if c.Access.AdminID == 0 && len(c.Access.AllowedUsers) == 0 {
		return fmt.Errorf("access.admin_id or access.allowed_users must be set")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("xai.base_url", "https://api.x.ai/v1")
	v.SetDefault("xai.model", "grok-4-1-fast-reasoning")
	v.SetDefault("xai.model_fast", "grok-4-1-fast-non-reasoning")
	v.SetDefault("xai.max_output_tokens", 16000)
	v.SetDefault("xai.reasoning_effort", "high")
	v.SetDefault("xai.timeout", "2m")

	v.SetDefault("database.path", "gigagrok.db")

	v.SetDefault("chat.max_history", 20)
	v.SetDefault("chat.content_flush_interval", "1.5s")
	v.SetDefault("chat.reasoning_flush_interval", "2s")
	v.SetDefault("chat.max_message_length", chat.DefaultMaxMessageLen)

	v.SetDefault("pricing.input_per_m", usage.DefaultInputPerM)
	v.SetDefault("pricing.output_per_m", usage.DefaultOutputPerM)

	v.SetDefault("health.addr", ":8080")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
