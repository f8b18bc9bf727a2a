// Package config loads CareMax configuration from an optional YAML file plus
// CAREMAX_* environment overrides, with safe defaults for local development.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/vortexion256/caremax/core"
)

// ModelConfig selects the model provider and generation parameters.
type ModelConfig struct {
	Provider    string        `mapstructure:"provider"` // "openai", "anthropic" or "mock"
	Name        string        `mapstructure:"name"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int64         `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// VerifyConfig bounds the post-write verification read.
type VerifyConfig struct {
	Attempts   int           `mapstructure:"attempts"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

// DriverConfig bounds the per-turn conversation loop.
type DriverConfig struct {
	MaxToolRounds int `mapstructure:"max_tool_rounds"`
	ContextTurns  int `mapstructure:"context_turns"`
	// KnowledgeLimit caps retrieved knowledge snippets per turn.
	KnowledgeLimit int `mapstructure:"knowledge_limit"`
}

// Config is the root CareMax configuration.
type Config struct {
	LogLevel  string            `mapstructure:"log_level"`
	LogFormat string            `mapstructure:"log_format"`
	Model     ModelConfig       `mapstructure:"model"`
	Verify    VerifyConfig      `mapstructure:"verify"`
	Driver    DriverConfig      `mapstructure:"driver"`
	Sheets    []core.SheetEntry `mapstructure:"sheets"`
}

// Default returns the baseline configuration. The 60s model timeout is a hard
// ceiling: a hung model call fails into the recovery path rather than
// blocking the turn.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "json",
		Model: ModelConfig{
			Provider:    "openai",
			Name:        "",
			Temperature: 0.7,
			MaxTokens:   4096,
			Timeout:     60 * time.Second,
		},
		Verify: VerifyConfig{
			Attempts:   2,
			RetryDelay: 500 * time.Millisecond,
		},
		Driver: DriverConfig{
			MaxToolRounds:  3,
			ContextTurns:   10,
			KnowledgeLimit: 5,
		},
	}
}

// Load reads configuration from ./caremax.yaml (or $HOME/.caremax/) merged
// with CAREMAX_* environment variables over the defaults. A missing config
// file is not an error.
func Load() (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigName("caremax")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.caremax/")

	v.SetEnvPrefix("CAREMAX")
	v.AutomaticEnv()

	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_format", cfg.LogFormat)
	v.SetDefault("model.provider", cfg.Model.Provider)
	v.SetDefault("model.name", cfg.Model.Name)
	v.SetDefault("model.temperature", cfg.Model.Temperature)
	v.SetDefault("model.max_tokens", cfg.Model.MaxTokens)
	v.SetDefault("model.timeout", cfg.Model.Timeout)
	v.SetDefault("verify.attempts", cfg.Verify.Attempts)
	v.SetDefault("verify.retry_delay", cfg.Verify.RetryDelay)
	v.SetDefault("driver.max_tool_rounds", cfg.Driver.MaxToolRounds)
	v.SetDefault("driver.context_turns", cfg.Driver.ContextTurns)
	v.SetDefault("driver.knowledge_limit", cfg.Driver.KnowledgeLimit)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations that would disable the safety bounds.
func (c *Config) Validate() error {
	if c.Driver.MaxToolRounds < 1 {
		return fmt.Errorf("driver.max_tool_rounds must be at least 1, got %d", c.Driver.MaxToolRounds)
	}
	if c.Verify.Attempts < 1 {
		return fmt.Errorf("verify.attempts must be at least 1, got %d", c.Verify.Attempts)
	}
	if c.Model.Timeout <= 0 {
		return fmt.Errorf("model.timeout must be positive, got %s", c.Model.Timeout)
	}
	seen := map[string]bool{}
	for _, s := range c.Sheets {
		if s.Label == "" {
			return fmt.Errorf("sheet entry missing label")
		}
		if seen[s.Label] {
			return fmt.Errorf("duplicate sheet label %q", s.Label)
		}
		seen[s.Label] = true
	}
	return nil
}
