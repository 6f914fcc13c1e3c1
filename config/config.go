// Package config holds the application settings, read from a YAML file
// layered over built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/RyanBlaney/sonido-genre/errs"
	"github.com/RyanBlaney/sonido-genre/features"
	"github.com/RyanBlaney/sonido-genre/logging"
	"github.com/RyanBlaney/sonido-genre/models"
	"github.com/RyanBlaney/sonido-genre/transcode"
)

// Config is the top-level configuration
type Config struct {
	LogLevel string `yaml:"log_level"`

	// Workers bounds extraction and prediction concurrency; 0 sizes pools
	// from the CPU count
	Workers int `yaml:"workers"`

	// CacheDir enables the persistent feature cache when set
	CacheDir string `yaml:"cache_dir"`

	Extraction features.Config        `yaml:"extraction"`
	Decoder    transcode.DecoderConfig `yaml:"decoder"`
	Model      ModelConfig             `yaml:"model"`
}

// ModelConfig selects a default model for classify and evaluate
type ModelConfig struct {
	Kind string `yaml:"kind"`
	Path string `yaml:"path"`
}

// Default returns the built-in settings
func Default() *Config {
	return &Config{
		LogLevel:   "info",
		Workers:    0,
		Extraction: *features.DefaultConfig(),
		Decoder:    *transcode.DefaultDecoderConfig(),
		Model:      ModelConfig{Kind: string(models.KindRandomForest)},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
// Unknown keys are rejected.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: config file %s", errs.ErrNotFound, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := Parse(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML into cfg, keeping the current value of absent keys
func Parse(data []byte, cfg *Config) error {
	return yaml.UnmarshalWithOptions(data, cfg, yaml.DisallowUnknownField())
}

// Validate checks every section
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if err := c.Extraction.Validate(); err != nil {
		return fmt.Errorf("extraction: %w", err)
	}
	if c.Decoder.MaxSamples < 0 {
		return fmt.Errorf("decoder: max_samples must not be negative, got %d", c.Decoder.MaxSamples)
	}
	if c.Model.Kind != "" {
		if _, err := models.ParseKind(c.Model.Kind); err != nil {
			return fmt.Errorf("model: %w", err)
		}
	}
	return nil
}

// Marshal renders cfg as YAML
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
