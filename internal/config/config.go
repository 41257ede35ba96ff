// Package config holds application configuration with defaults and an
// optional YAML overlay.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Default configuration values
const (
	DefaultPort          = 8000
	DefaultMaxStories    = 5
	MaxStoriesCeiling    = 10
	DefaultWatchDebounce = 500 // milliseconds
)

// Config holds all application configuration
type Config struct {
	// Server
	Port               int      `yaml:"port"`
	APIKey             string   `yaml:"api_key"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`

	// Storage
	DataDir      string `yaml:"data_dir"`
	DatabasePath string `yaml:"database_path"`

	// Rules
	RulesPath     string `yaml:"rules_path"`
	WatchRules    bool   `yaml:"watch_rules"`
	WatchDebounce int    `yaml:"watch_debounce"` // milliseconds

	// Engine settings
	DefaultMaxStories int `yaml:"default_max_stories"`
}

// New creates a Config with default values.
func New() *Config {
	wd, _ := os.Getwd()

	return &Config{
		Port:               DefaultPort,
		CORSAllowedOrigins: []string{"http://localhost:*"},
		DataDir:            filepath.Join(wd, "data"),
		RulesPath:          filepath.Join(wd, "rules.yaml"),
		WatchRules:         true,
		WatchDebounce:      DefaultWatchDebounce,
		DefaultMaxStories:  DefaultMaxStories,
	}
}

// Load reads a YAML config file over the defaults. A missing file is
// not an error; the defaults stand.
func Load(path string) (*Config, error) {
	cfg := New()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Port <= 0 {
		cfg.Port = DefaultPort
	}
	if cfg.DefaultMaxStories <= 0 || cfg.DefaultMaxStories > MaxStoriesCeiling {
		cfg.DefaultMaxStories = DefaultMaxStories
	}
	if cfg.WatchDebounce <= 0 {
		cfg.WatchDebounce = DefaultWatchDebounce
	}

	return cfg, nil
}

// ResolvedDatabasePath returns the configured database path, or the
// default location under DataDir.
func (c *Config) ResolvedDatabasePath() string {
	if c.DatabasePath != "" {
		return c.DatabasePath
	}
	return filepath.Join(c.DataDir, "storyforge.db")
}

// RulesFileExists checks if the rules file is present.
func (c *Config) RulesFileExists() bool {
	_, err := os.Stat(c.RulesPath)
	return err == nil
}
