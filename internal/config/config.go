// Package config loads repolens configuration from a YAML file, falling
// back to defaults when no file exists.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/repolens/repolens/internal/runner"
	"github.com/repolens/repolens/internal/scan"
)

// Config holds every tunable of an analysis run.
type Config struct {
	// Model is the summarization model. Empty defers to the ai package's
	// default (and its REPOLENS_MODEL override).
	Model string `yaml:"model"`

	// MaxTokens caps the model response size.
	MaxTokens int `yaml:"max_tokens"`

	// CommandTimeoutSeconds bounds each build/test command.
	CommandTimeoutSeconds int `yaml:"command_timeout_seconds"`

	// SampleMaxChars is the source sampling budget.
	SampleMaxChars int `yaml:"sample_max_chars"`

	// DatabasePath is the analysis history location.
	DatabasePath string `yaml:"database_path"`

	// WorkspaceRoot is where per-analysis temp directories are created.
	// Empty means the system temp directory.
	WorkspaceRoot string `yaml:"workspace_root"`

	// MaxConcurrentCalls bounds in-flight model API calls.
	MaxConcurrentCalls int `yaml:"max_concurrent_calls"`

	// RequestsPerMinute rate-limits model API calls. Zero disables.
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		MaxTokens:             4096,
		CommandTimeoutSeconds: int(runner.DefaultTimeout / time.Second),
		SampleMaxChars:        scan.DefaultMaxChars,
		DatabasePath:          defaultDatabasePath(),
		MaxConcurrentCalls:    3,
	}
}

// Load reads the config file at path and overlays it on the defaults.
// A missing file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	// Zero values in the file mean "use the default", not "disable".
	defaults := Default()
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaults.MaxTokens
	}
	if cfg.CommandTimeoutSeconds == 0 {
		cfg.CommandTimeoutSeconds = defaults.CommandTimeoutSeconds
	}
	if cfg.SampleMaxChars == 0 {
		cfg.SampleMaxChars = defaults.SampleMaxChars
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = defaults.DatabasePath
	}
	if cfg.MaxConcurrentCalls == 0 {
		cfg.MaxConcurrentCalls = defaults.MaxConcurrentCalls
	}

	return cfg, nil
}

// CommandTimeout returns the per-command timeout as a duration.
func (c Config) CommandTimeout() time.Duration {
	return time.Duration(c.CommandTimeoutSeconds) * time.Second
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "repolens.yaml"
	}
	return filepath.Join(home, ".repolens", "config.yaml")
}

func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "repolens.db"
	}
	return filepath.Join(home, ".repolens", "history.db")
}
