package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"voice-search/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad_DefaultsAndExpansion(t *testing.T) {
	t.Setenv("TEST_PERPLEXITY_KEY", "pplx-abc123")

	path := writeConfig(t, `
perplexity:
  api_key: ${TEST_PERPLEXITY_KEY}
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Perplexity.APIKey != "pplx-abc123" {
		t.Errorf("api_key: got %q, want expanded env value", cfg.Perplexity.APIKey)
	}
	if cfg.Perplexity.Model != "sonar-pro" {
		t.Errorf("model default: got %q", cfg.Perplexity.Model)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr default: got %q", cfg.Server.Addr)
	}
	if got := cfg.Perplexity.UpstreamTimeout(); got != 6*time.Second {
		t.Errorf("timeout default: got %v", got)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidate_MissingAPIKey(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := cfg.Validate(); err == nil {
		t.Error("Validate must fail when api_key is missing")
	}
}

func TestValidate_BadTimeout(t *testing.T) {
	path := writeConfig(t, `
perplexity:
  api_key: pplx-abc123
  timeout: soon
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := cfg.Validate(); err == nil {
		t.Error("Validate must fail on an unparseable timeout")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load must fail for a missing file")
	}
}
