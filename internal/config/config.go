// Package config loads and persists Prism configuration from .prism/config.json.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Version is the current config schema version.
const Version = 1

// Config represents the complete Prism configuration
type Config struct {
	Version  int    `json:"version" mapstructure:"version"`
	RepoRoot string `json:"repoRoot" mapstructure:"repoRoot"`

	Analyzer AnalyzerConfig `json:"analyzer" mapstructure:"analyzer"`
	Output   OutputConfig   `json:"output" mapstructure:"output"`
	Cache    CacheConfig    `json:"cache" mapstructure:"cache"`
	Logging  LoggingConfig  `json:"logging" mapstructure:"logging"`
}

// AnalyzerConfig controls source discovery and graph construction
type AnalyzerConfig struct {
	// IgnoreGlobs are doublestar patterns excluded from discovery, on top
	// of the built-in skip list (node_modules, .git, ...)
	IgnoreGlobs []string `json:"ignoreGlobs" mapstructure:"ignoreGlobs"`
	// LayersFile is the repo-relative path of the layer override file
	LayersFile string `json:"layersFile" mapstructure:"layersFile"`
	// MaxFileSizeBytes skips files larger than this during parsing
	MaxFileSizeBytes int `json:"maxFileSizeBytes" mapstructure:"maxFileSizeBytes"`
}

// OutputConfig controls where graphs and reports are written
type OutputConfig struct {
	// GraphDir is the default graph directory, relative to the repo root
	GraphDir string `json:"graphDir" mapstructure:"graphDir"`
}

// CacheConfig controls the snapshot cache
type CacheConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" mapstructure:"path"`
	// MaxSnapshots bounds how many cached graphs Prune keeps
	MaxSnapshots int `json:"maxSnapshots" mapstructure:"maxSnapshots"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:  Version,
		RepoRoot: ".",
		Analyzer: AnalyzerConfig{
			IgnoreGlobs:      []string{},
			LayersFile:       "LAYERS.toml",
			MaxFileSizeBytes: 1_000_000,
		},
		Output: OutputConfig{
			GraphDir: ".prism/graph",
		},
		Cache: CacheConfig{
			Enabled:      true,
			Path:         ".prism/snapshots.db",
			MaxSnapshots: 50,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// Load reads configuration from <repoRoot>/.prism/config.json, returning
// defaults when no config file exists.
func Load(repoRoot string) (*Config, error) {
	v := viper.New()

	v.SetDefault("version", Version)
	v.SetDefault("repoRoot", ".")

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(repoRoot, ".prism"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			cfg := DefaultConfig()
			cfg.RepoRoot = repoRoot
			return cfg, nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	// The repo root is where we found the config, not whatever a stale
	// config file claims.
	cfg.RepoRoot = repoRoot
	return cfg, nil
}

// Save writes the configuration to <repoRoot>/.prism/config.json
func (c *Config) Save(repoRoot string) error {
	dir := filepath.Join(repoRoot, ".prism")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0o644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != Version {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if c.Analyzer.MaxFileSizeBytes < 0 {
		return &ConfigError{Field: "analyzer.maxFileSizeBytes", Message: "must be non-negative"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
