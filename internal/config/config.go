// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via
// CLI flags.
type Config struct {
	// Paths
	LedgerDir       string `json:"ledger_dir,omitempty"`        // Directory holding failure ledgers
	SourcesFile     string `json:"sources_file,omitempty"`      // YAML file of source site rules
	FilterWordsFile string `json:"filter_words_file,omitempty"` // YAML file of words scrubbed from chapter text

	// Pacing
	DelayMinSeconds        int `json:"delay_min_seconds,omitempty" validate:"gte=0"`         // Minimum delay between fetches
	DelayMaxSeconds        int `json:"delay_max_seconds,omitempty" validate:"gte=0"`         // Maximum delay between fetches
	FailureDelayMinSeconds int `json:"failure_delay_min_seconds,omitempty" validate:"gte=0"` // Minimum delay after a failed fetch
	FailureDelayMaxSeconds int `json:"failure_delay_max_seconds,omitempty" validate:"gte=0"` // Maximum delay after a failed fetch

	// Behavior
	ImportConcurrency int    `json:"import_concurrency,omitempty" validate:"gte=0,lte=64"` // Parallel file imports
	Verbose           bool   `json:"verbose,omitempty"`                                    // Print detailed debug information
	DatabaseURL       string `json:"database_url,omitempty"`                               // PostgreSQL connection URL
}

// DefaultConfig returns the built-in defaults applied beneath any config
// file or flag values.
func DefaultConfig() Config {
	return Config{
		LedgerDir:              "failures",
		SourcesFile:            "sources.yaml",
		FilterWordsFile:        "filter_words.yaml",
		DelayMinSeconds:        1,
		DelayMaxSeconds:        5,
		FailureDelayMinSeconds: 3,
		FailureDelayMaxSeconds: 8,
		ImportConcurrency:      4,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
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

var validate = validator.New()

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if c.DelayMaxSeconds < c.DelayMinSeconds {
		return fmt.Errorf("config error: 'delay_max_seconds' must be >= 'delay_min_seconds'")
	}
	if c.FailureDelayMaxSeconds < c.FailureDelayMinSeconds {
		return fmt.Errorf("config error: 'failure_delay_max_seconds' must be >= 'failure_delay_min_seconds'")
	}

	if c.SourcesFile != "" {
		if _, err := os.Stat(c.SourcesFile); os.IsNotExist(err) {
			return fmt.Errorf("config error: sources file not found: %s", c.SourcesFile)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from
// defaults. This is used to apply config file values beneath CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.LedgerDir == "" {
		result.LedgerDir = defaults.LedgerDir
	}
	if result.SourcesFile == "" {
		result.SourcesFile = defaults.SourcesFile
	}
	if result.FilterWordsFile == "" {
		result.FilterWordsFile = defaults.FilterWordsFile
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}

	if result.DelayMinSeconds == 0 {
		result.DelayMinSeconds = defaults.DelayMinSeconds
	}
	if result.DelayMaxSeconds == 0 {
		result.DelayMaxSeconds = defaults.DelayMaxSeconds
	}
	if result.FailureDelayMinSeconds == 0 {
		result.FailureDelayMinSeconds = defaults.FailureDelayMinSeconds
	}
	if result.FailureDelayMaxSeconds == 0 {
		result.FailureDelayMaxSeconds = defaults.FailureDelayMaxSeconds
	}
	if result.ImportConcurrency == 0 {
		result.ImportConcurrency = defaults.ImportConcurrency
	}

	return result
}
