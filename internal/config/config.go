// Package config loads the project settings file, .semantic.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the settings file looked up in the project root.
const FileName = ".semantic.toml"

// Config holds the engine settings. Zero fields of a decoded file keep
// their defaults.
type Config struct {
	CFG            bool     `toml:"cfg"`
	ExcessCapacity float64  `toml:"excess_capacity"`
	Workers        int      `toml:"workers"`
	Rules          []string `toml:"rules"`
	RulesDir       string   `toml:"rules_dir"`
	Exclude        []string `toml:"exclude"`
	MaxFileSize    int64    `toml:"max_file_size"`
}

// DefaultExclude lists directories skipped when walking a project.
var DefaultExclude = []string{".git", "node_modules", "dist", "build", "coverage", "vendor"}

// DefaultMaxFileSize bounds the size of an analyzed file.
const DefaultMaxFileSize = 2 << 20

// Default returns the settings used when no file is present.
func Default() Config {
	return Config{
		CFG:         true,
		Exclude:     append([]string(nil), DefaultExclude...),
		MaxFileSize: DefaultMaxFileSize,
	}
}

// Load reads FileName from dir. A missing file yields Default.
func Load(dir string) (Config, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("config: stat %q: %w", path, err)
	}
	return LoadFile(path)
}

// LoadFile decodes the settings at path over the defaults.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("config: %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	if cfg.RulesDir != "" && !filepath.IsAbs(cfg.RulesDir) {
		cfg.RulesDir = filepath.Join(filepath.Dir(path), cfg.RulesDir)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.ExcessCapacity < 0 {
		return fmt.Errorf("excess_capacity must not be negative, got %g", c.ExcessCapacity)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("max_file_size must be positive, got %d", c.MaxFileSize)
	}
	return nil
}

// Excluded reports whether a directory with the given base name is skipped.
func (c Config) Excluded(name string) bool {
	for _, e := range c.Exclude {
		if e == name {
			return true
		}
	}
	return false
}
