// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config represents the CLI configuration that can be loaded from a JSON
// file. All fields are optional; missing values use defaults or must be
// provided via CLI flags. There are no hidden defaults inside the pipeline:
// everything the algorithms consume flows through here explicitly.
type Config struct {
	// Paths
	Input         string `json:"input,omitempty"`          // Path to the paragraph records JSON
	OutputDir     string `json:"output_dir,omitempty"`     // Directory for final outputs
	CheckpointDir string `json:"checkpoint_dir,omitempty"` // Directory for snapshots

	// Service
	APIKey      string `json:"api_key,omitempty"`      // Gemini API key (GEMINI_API_KEY env fallback)
	Model       string `json:"model,omitempty"`        // Override the lite-tier model name
	DatabaseURL string `json:"database_url,omitempty"` // Optional PostgreSQL URL for run records

	// Throughput
	MaxPermits  int    `json:"max_permits,omitempty" validate:"gte=0"` // Calls allowed per window
	Window      string `json:"window,omitempty"`                       // Rolling window, e.g. "1m"
	BatchSize   int    `json:"batch_size,omitempty" validate:"gte=0"`  // Paragraphs per checkpointed batch
	Concurrency int    `json:"concurrency,omitempty" validate:"gte=0"` // In-flight classifications

	// Retry policy
	RetryBase     string `json:"retry_base,omitempty"`                      // First backoff wait, e.g. "2s"
	RetryMaxWait  string `json:"retry_max_wait,omitempty"`                  // Backoff cap, e.g. "30s"
	RetryAttempts int    `json:"retry_attempts,omitempty" validate:"gte=0"` // Max service calls per paragraph

	// Behavior
	NoContext bool `json:"no_context,omitempty"` // Skip the domain context block in prompts
	Verbose   bool `json:"verbose,omitempty"`    // Debug-level logging
}

// Defaults returns the configuration values used when neither the config
// file nor the flags set them. The throughput and retry numbers match what
// the classification service quota has been run against.
func Defaults() Config {
	return Config{
		OutputDir:     "data/output",
		CheckpointDir: "data/checkpoints",
		MaxPermits:    50,
		Window:        "1m",
		BatchSize:     100,
		Concurrency:   8,
		RetryBase:     "2s",
		RetryMaxWait:  "30s",
		RetryAttempts: 5,
	}
}

// Load loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values. Limiter and retry
// misconfiguration must fail here, before any quota is spent.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	for name, value := range map[string]string{
		"window":         c.Window,
		"retry_base":     c.RetryBase,
		"retry_max_wait": c.RetryMaxWait,
	} {
		if value == "" {
			continue
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("config error: %q is not a valid duration for %s", value, name)
		}
		if d <= 0 {
			return fmt.Errorf("config error: %s must be positive, got %s", name, value)
		}
	}

	if c.Input != "" {
		if _, err := os.Stat(c.Input); os.IsNotExist(err) {
			return fmt.Errorf("config error: input file not found: %s", c.Input)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with zero-valued fields filled from
// defaults. CLI flags are applied before this, so flags win over the config
// file, which wins over defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Input == "" {
		result.Input = defaults.Input
	}
	if result.OutputDir == "" {
		result.OutputDir = defaults.OutputDir
	}
	if result.CheckpointDir == "" {
		result.CheckpointDir = defaults.CheckpointDir
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.Model == "" {
		result.Model = defaults.Model
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.Window == "" {
		result.Window = defaults.Window
	}
	if result.RetryBase == "" {
		result.RetryBase = defaults.RetryBase
	}
	if result.RetryMaxWait == "" {
		result.RetryMaxWait = defaults.RetryMaxWait
	}
	if result.MaxPermits == 0 {
		result.MaxPermits = defaults.MaxPermits
	}
	if result.BatchSize == 0 {
		result.BatchSize = defaults.BatchSize
	}
	if result.Concurrency == 0 {
		result.Concurrency = defaults.Concurrency
	}
	if result.RetryAttempts == 0 {
		result.RetryAttempts = defaults.RetryAttempts
	}

	// Bool fields: cannot distinguish unset from false, so flags always win

	return result
}

// WindowDuration returns the parsed rolling window. Call Validate first.
func (c *Config) WindowDuration() time.Duration {
	return mustDuration(c.Window, time.Minute)
}

// RetryBaseDuration returns the parsed first backoff wait. Call Validate first.
func (c *Config) RetryBaseDuration() time.Duration {
	return mustDuration(c.RetryBase, 2*time.Second)
}

// RetryMaxWaitDuration returns the parsed backoff cap. Call Validate first.
func (c *Config) RetryMaxWaitDuration() time.Duration {
	return mustDuration(c.RetryMaxWait, 30*time.Second)
}

func mustDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
