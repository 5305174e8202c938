// Package config loads settings for the logprobs CLI and server from a
// YAML file with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ncecere/logprobs/openai"
	"github.com/ncecere/logprobs/provider"
)

// DefaultModelName is the registry name used when the file does not
// declare any models.
const DefaultModelName = "default"

// Config holds settings loaded from logprobs.yaml.
type Config struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	// DefaultModel is the registry name used when a request names no model.
	DefaultModel string `yaml:"default_model"`
	// Models maps registry names to provider model IDs.
	Models  map[string]string `yaml:"models"`
	Headers map[string]string `yaml:"headers"`
	Timeout time.Duration     `yaml:"timeout"`
	Listen  string            `yaml:"listen"`
}

// Default returns the base configuration a file is decoded on top of.
// Models and DefaultModel are left empty; Load fills them in.
func Default() *Config {
	return &Config{
		BaseURL: openai.DefaultBaseURL,
		Timeout: 30 * time.Second,
		Listen:  ":8085",
	}
}

// Load reads the config at path and applies environment overrides.
//
// If path is empty, LOGPROBS_CONFIG is consulted, then ./logprobs.yaml.
// A missing file is only an error when the path was given explicitly.
//
// Environment overrides:
//   - OPENAI_API_KEY
//   - OPENAI_BASE_URL
//   - LOGPROBS_MODEL (registry name of the default model)
//   - LOGPROBS_LISTEN
func Load(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		path = os.Getenv("LOGPROBS_CONFIG")
		explicit = path != ""
	}
	if path == "" {
		path = "logprobs.yaml"
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg.applyEnv()
	if len(cfg.Models) == 0 {
		cfg.Models = map[string]string{DefaultModelName: openai.DefaultModel}
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = DefaultModelName
		if len(cfg.Models) == 1 {
			for name := range cfg.Models {
				cfg.DefaultModel = name
			}
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("LOGPROBS_MODEL"); v != "" {
		c.DefaultModel = v
	}
	if v := os.Getenv("LOGPROBS_LISTEN"); v != "" {
		c.Listen = v
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("config: timeout must not be negative, got %s", c.Timeout)
	}
	if _, ok := c.Models[c.DefaultModel]; !ok {
		return fmt.Errorf("config: default_model %q is not declared under models", c.DefaultModel)
	}
	for name, id := range c.Models {
		if id == "" {
			return fmt.Errorf("config: model %q has an empty model ID", name)
		}
	}
	return nil
}

// ClientOptions converts the configuration into provider options.
// A zero Timeout leaves the default HTTP client in place.
func (c *Config) ClientOptions() provider.ClientOptions {
	opts := provider.ClientOptions{
		BaseURL: c.BaseURL,
		APIKey:  c.APIKey,
	}
	if c.Timeout > 0 {
		opts.HTTPClient = openai.WithHTTPTimeout(c.Timeout)
	}
	if len(c.Headers) > 0 {
		opts.Headers = make(http.Header, len(c.Headers))
		for k, v := range c.Headers {
			opts.Headers.Set(k, v)
		}
	}
	return opts
}
