// Package config handles configuration loading and validation for
// aivid.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Version is the current configuration schema version.
const Version = 1

// Config holds the complete analyzer configuration.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version"`

	// Tools configures the external collaborator binaries.
	Tools ToolsConfig `toml:"tools" json:"tools"`

	// Extractors configures the signal registry.
	Extractors ExtractorsConfig `toml:"extractors" json:"extractors"`

	// Detection configures the rule table and knowledge base.
	Detection DetectionConfig `toml:"detection" json:"detection"`

	// Cache configures the verdict cache.
	Cache CacheConfig `toml:"cache" json:"cache"`

	// Batch configures multi-file analysis.
	Batch BatchConfig `toml:"batch" json:"batch"`

	// Logging configures structured log output.
	Logging LoggingConfig `toml:"logging" json:"logging"`
}

// ToolsConfig holds external tool locations and the shared invocation
// timeout. Paths may be bare binary names resolved on PATH.
type ToolsConfig struct {
	FFprobe    string `toml:"ffprobe" json:"ffprobe"`
	ExifTool   string `toml:"exiftool" json:"exiftool"`
	C2PATool   string `toml:"c2patool" json:"c2patool"`
	TimeoutSec int    `toml:"timeout_sec" json:"timeout_sec"`
}

// Timeout returns the per-invocation tool timeout.
func (t ToolsConfig) Timeout() time.Duration {
	return time.Duration(t.TimeoutSec) * time.Second
}

// ExtractorsConfig holds signal registry settings.
type ExtractorsConfig struct {
	// Disabled lists extractor names excluded from the run.
	Disabled []string `toml:"disabled" json:"disabled"`
}

// IsDisabled reports whether the named extractor is switched off.
func (e ExtractorsConfig) IsDisabled(name string) bool {
	for _, d := range e.Disabled {
		if d == name {
			return true
		}
	}
	return false
}

// DetectionConfig holds detection engine settings.
type DetectionConfig struct {
	// SignaturesPath is an optional YAML file of additional generator
	// signatures merged over the built-in knowledge base.
	SignaturesPath string `toml:"signatures_path" json:"signatures_path"`
}

// CacheConfig holds verdict cache settings.
type CacheConfig struct {
	Enabled bool `toml:"enabled" json:"enabled"`

	// Path is the SQLite database location. Empty selects the
	// platform cache directory.
	Path string `toml:"path" json:"path"`
}

// BatchConfig holds multi-file analysis settings.
type BatchConfig struct {
	// Workers bounds parallel file analyses. Zero selects a default.
	Workers int `toml:"workers" json:"workers"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level" json:"level"`

	// Format is text or json.
	Format string `toml:"format" json:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version: Version,
		Tools: ToolsConfig{
			FFprobe:    "ffprobe",
			ExifTool:   "exiftool",
			C2PATool:   "c2patool",
			TimeoutSec: 30,
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    filepath.Join(PlatformCacheDir(), "verdicts.db"),
		},
		Batch: BatchConfig{
			Workers: 4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a TOML configuration file, layering it over the defaults.
// A missing file at the default location is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && path == DefaultPath() {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultPath returns the default configuration file location.
func DefaultPath() string {
	return filepath.Join(PlatformConfigDir(), "config.toml")
}

// Validate checks the configuration for consistency, collecting every
// problem rather than stopping at the first.
func (c *Config) Validate() error {
	var errs []error

	if c.Version > Version {
		errs = append(errs, fmt.Errorf("config version %d is newer than supported version %d", c.Version, Version))
	}
	if c.Tools.TimeoutSec < 0 {
		errs = append(errs, errors.New("tools.timeout_sec must not be negative"))
	}
	if c.Batch.Workers < 0 {
		errs = append(errs, errors.New("batch.workers must not be negative"))
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q is not one of text, json", c.Logging.Format))
	}
	if c.Detection.SignaturesPath != "" {
		if _, err := os.Stat(c.Detection.SignaturesPath); err != nil {
			errs = append(errs, fmt.Errorf("detection.signatures_path: %w", err))
		}
	}

	return errors.Join(errs...)
}
