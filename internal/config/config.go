// Package config loads build configuration for the book conversion
// pipeline.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mega65/bookfilter/internal/fileutil"
	"github.com/mega65/bookfilter/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
)

// Output formats the converter can emit.
var knownFormats = map[string]bool{
	"html":  true,
	"html5": true,
	"epub":  true,
	"epub3": true,
}

// Pass names recognized by the filter pipeline; referenced here only for
// validation so a typo in the config fails fast instead of silently
// running every pass.
var knownPasses = map[string]bool{
	"chapters": true,
	"screen":   true,
	"anchors":  true,
	"sizemark": true,
	"keys":     true,
	"math":     true,
}

// Config holds all configuration for a book build.
type Config struct {
	Input   InputConfig   `yaml:"input"`
	Output  OutputConfig  `yaml:"output"`
	Pandoc  PandocConfig  `yaml:"pandoc"`
	Filter  FilterConfig  `yaml:"filter"`
	Preview PreviewConfig `yaml:"preview"`
}

// InputConfig defines the LaTeX source options.
type InputConfig struct {
	Source    string `yaml:"source"`    // Flattened .tex source (empty = must specify on CLI)
	ImageRoot string `yaml:"imageRoot"` // Directory image paths resolve against
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	Dir     string   `yaml:"dir"`     // Output directory (empty = current directory)
	Formats []string `yaml:"formats"` // Target formats (default: html)
}

// PandocConfig defines how the external converter is invoked.
type PandocConfig struct {
	Binary     string `yaml:"binary"`     // pandoc binary (default: "pandoc" on PATH)
	ChunkLevel int    `yaml:"chunkLevel"` // Heading level pages split at; 0 = single page
}

// FilterConfig toggles individual filter passes.
type FilterConfig struct {
	DisabledPasses []string `yaml:"disabledPasses"`
}

// PreviewConfig defines standalone preview options.
type PreviewConfig struct {
	Enabled bool   `yaml:"enabled"`
	Workers int    `yaml:"workers"` // Parallel proof renderers; 0 = derive from CPU count
	Timeout string `yaml:"timeout"` // Per-page render timeout, e.g. "2m" (empty = default)
}

// Validate checks formats, pass names and chunk level.
func (c *Config) Validate() error {
	for _, f := range c.Output.Formats {
		if !knownFormats[strings.ToLower(f)] {
			return fmt.Errorf("output.formats: unknown format %q (must be html, html5, epub, or epub3)", f)
		}
	}
	for _, p := range c.Filter.DisabledPasses {
		if !knownPasses[p] {
			return fmt.Errorf("filter.disabledPasses: unknown pass %q", p)
		}
	}
	if c.Pandoc.ChunkLevel < 0 || c.Pandoc.ChunkLevel > 6 {
		return fmt.Errorf("pandoc.chunkLevel: must be between 0 and 6, got %d", c.Pandoc.ChunkLevel)
	}
	if c.Preview.Workers < 0 {
		return fmt.Errorf("preview.workers: must not be negative, got %d", c.Preview.Workers)
	}
	if c.Preview.Timeout != "" {
		if d, err := time.ParseDuration(c.Preview.Timeout); err != nil || d <= 0 {
			return fmt.Errorf("preview.timeout: not a positive duration: %q", c.Preview.Timeout)
		}
	}
	return nil
}

// PreviewTimeout parses the configured per-page render timeout.
// Returns 0 (use the renderer default) when unset.
func (c *Config) PreviewTimeout() time.Duration {
	d, err := time.ParseDuration(c.Preview.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// DefaultConfig returns a configuration that builds single-page HTML with
// every filter pass enabled.
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{Formats: []string{"html"}},
		Pandoc: PandocConfig{Binary: "pandoc", ChunkLevel: 1},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/bookfilter/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "bookfilter", name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}

