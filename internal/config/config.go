// Package config loads the optional relmat tool configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/atinylittleshell/relmat/internal/core"
	"github.com/atinylittleshell/relmat/internal/materials"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config models ~/.relmat/config.yaml. Every setting is optional.
type Config struct {
	// MemoryFile overrides the default memory.json location.
	MemoryFile string `yaml:"memory_file"`

	LogFile  string `yaml:"log_file"`
	LogLevel string `yaml:"log_level"` // debug, info, warn, error

	// Defaults extends the built-in default table. Keys must be tracked fields.
	Defaults map[string]string `yaml:"defaults"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Defaults: map[string]string{},
	}
}

// Load reads the YAML config at path. A missing file yields DefaultConfig; a
// malformed file or an unknown default key is an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var unknown []string
	for k := range c.Defaults {
		if _, ok := materials.ParseField(k); !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("unknown default fields: %v", unknown)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// ResolvedMemoryFile returns the memory file path after applying the config.
func (c *Config) ResolvedMemoryFile() string {
	if c.MemoryFile != "" {
		return core.ExpandHome(c.MemoryFile)
	}
	return core.MemoryFile()
}

// ResolvedLogFile returns the log file path after applying the config.
func (c *Config) ResolvedLogFile() string {
	if c.LogFile != "" {
		return core.ExpandHome(c.LogFile)
	}
	return core.LogFile()
}

// Level parses LogLevel. An empty level means info.
func (c *Config) Level() (zapcore.Level, error) {
	if c.LogLevel == "" {
		return zapcore.InfoLevel, nil
	}
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// DefaultValues returns the built-in defaults overlaid with the configured
// ones.
func (c *Config) DefaultValues() materials.Values {
	values := materials.Defaults()
	for f, v := range materials.FromStrings(c.Defaults) {
		if v != "" {
			values[f] = v
		}
	}
	return values
}
