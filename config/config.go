package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Perplexity PerplexityConfig `yaml:"perplexity"`
	Pushover   PushoverConfig   `yaml:"pushover"`
	Log        LogConfig        `yaml:"log"`
}

type ServerConfig struct {
	Addr      string `yaml:"addr"`
	AuthToken string `yaml:"auth_token"`
}

type PerplexityConfig struct {
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	Timeout     string  `yaml:"timeout"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

type PushoverConfig struct {
	Token   string `yaml:"token"`
	UserKey string `yaml:"user_key"`
	Enabled bool   `yaml:"enabled"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

// Validate checks everything that must be present before the server can
// accept a single event. A missing API key is a startup failure, never a
// per-request one.
func (c *Config) Validate() error {
	if c.Perplexity.APIKey == "" {
		return fmt.Errorf("perplexity.api_key is required (set PERPLEXITY_API_KEY or put it in the config file)")
	}
	if _, err := time.ParseDuration(c.Perplexity.Timeout); err != nil {
		return fmt.Errorf("perplexity.timeout: %w", err)
	}
	return nil
}

// UpstreamTimeout returns the parsed per-request timeout for the completion
// API. Validate catches unparseable values at startup.
func (c PerplexityConfig) UpstreamTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 6 * time.Second
	}
	return d
}

func (c *Config) setDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Perplexity.Model == "" {
		c.Perplexity.Model = "sonar-pro"
	}
	if c.Perplexity.BaseURL == "" {
		c.Perplexity.BaseURL = "https://api.perplexity.ai"
	}
	if c.Perplexity.Timeout == "" {
		// The voice platform caps the whole invocation at roughly eight
		// seconds; the upstream call must leave headroom for a retry.
		c.Perplexity.Timeout = "6s"
	}
	if c.Perplexity.MaxTokens == 0 {
		c.Perplexity.MaxTokens = 512
	}
	if c.Perplexity.Temperature == 0 {
		c.Perplexity.Temperature = 0.2
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}
