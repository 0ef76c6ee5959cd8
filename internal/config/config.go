// Package config holds casebook's host configuration, loaded from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"casebook/internal/registry"

	"gopkg.in/yaml.v3"
)

// Config holds all casebook configuration.
type Config struct {
	// Separator joins kind and name segments in derived story ids.
	Separator string `yaml:"separator"`

	// InferSeparators enables the legacy heuristic that scans registered
	// kind names for a hierarchy separator when none is configured.
	// Compatibility shim; leave off unless old manifests depend on it.
	InferSeparators bool `yaml:"infer_separators"`

	// DisableStoryDispose suppresses per-story dispose callbacks; kind-level
	// disposal still removes everything on reload.
	DisableStoryDispose bool `yaml:"disable_story_dispose"`

	// Watch configures the manifest watcher.
	Watch WatchConfig `yaml:"watch"`
}

// WatchConfig configures the manifest directory watcher.
type WatchConfig struct {
	Dir        string `yaml:"dir"`
	DebounceMs int    `yaml:"debounce_ms"`
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		Separator: "-",
		Watch: WatchConfig{
			Dir:        "stories",
			DebounceMs: 250,
		},
	}
}

// Load reads configuration from a YAML file, layered over defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads the file if it exists, otherwise returns defaults.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.Watch.DebounceMs < 0 {
		return fmt.Errorf("watch.debounce_ms cannot be negative: %d", c.Watch.DebounceMs)
	}
	return nil
}

// Debounce returns the watch debounce window.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Watch.DebounceMs) * time.Millisecond
}

// RegistryOptions maps the configuration onto registration options.
func (c *Config) RegistryOptions() registry.Options {
	return registry.Options{
		Separator:           c.Separator,
		DisableStoryDispose: c.DisableStoryDispose,
	}
}
