// Package config loads the notecast configuration from YAML with environment
// fallbacks.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Log     LogConfig     `yaml:"log"`
	DB      DBConfig      `yaml:"db"`
	Podcast PodcastConfig `yaml:"podcast"`
}

// APIConfig holds backend connection settings.
type APIConfig struct {
	BaseURL string   `yaml:"base_url"`
	Timeout Duration `yaml:"timeout"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn", "error"
}

// DBConfig holds the local storage location.
type DBConfig struct {
	Path string `yaml:"path"`
}

// PodcastConfig holds generation defaults, overridable per run via flags.
type PodcastConfig struct {
	Mode        string `yaml:"mode"` // "normal" or "debate"
	PersonCount int    `yaml:"person_count"`
	HasHost     bool   `yaml:"has_host"`
	OutputDir   string `yaml:"output_dir"`
}

// DefaultConfig returns the built-in defaults. The base URL falls back to the
// local development backend.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:5000",
			Timeout: Duration(5 * time.Minute),
		},
		Log: LogConfig{Level: "info"},
		DB:  DBConfig{Path: "data/notecast.db"},
		Podcast: PodcastConfig{
			Mode:        "normal",
			PersonCount: 2,
			HasHost:     true,
			OutputDir:   ".",
		},
	}
}

// Load loads the configuration from the given path. A missing file is
// created with defaults; an existing file is merged over them but never
// written back, preserving user formatting. NOTECAST_API_URL overrides the
// base URL when set.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else {
		if err := Save(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to save config file: %w", err)
		}
	}

	if u := os.Getenv("NOTECAST_API_URL"); u != "" {
		cfg.API.BaseURL = u
	}

	return cfg, nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// GenerateDefault writes the default configuration to path.
func GenerateDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return Save(path, DefaultConfig())
}
