// Package config loads triekb configuration from YAML with environment
// overrides for a small set of deployment-facing keys.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all triekb configuration.
type Config struct {
	Engine   EngineConfig   `yaml:"engine"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// EngineConfig bounds the fixed-point evaluator.
type EngineConfig struct {
	// MaxIterations caps one run-to-fixed-point call. Exceeding it is a
	// reported non-convergence, not an error.
	MaxIterations int `yaml:"max_iterations"`
	// MaxFacts refuses snapshot loads that would exceed this many facts.
	// Zero means unbounded.
	MaxFacts int `yaml:"max_facts"`
}

// SnapshotConfig configures persistence.
type SnapshotConfig struct {
	Path     string `yaml:"path"`
	Compress bool   `yaml:"compress"`
	// Watch enables hot reload when the snapshot file changes on disk.
	Watch bool `yaml:"watch"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			MaxIterations: 1000,
			MaxFacts:      0,
		},
		Snapshot: SnapshotConfig{
			Path:     "triekb.snapshot",
			Compress: true,
			Watch:    false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads configuration from a YAML file, falling back to defaults when
// the file does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("TRIEKB_SNAPSHOT"); v != "" {
		c.Snapshot.Path = v
	}
	if v := os.Getenv("TRIEKB_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("TRIEKB_MAX_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Engine.MaxIterations = n
		}
	}
}
