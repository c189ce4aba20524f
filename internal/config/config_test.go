package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestDefaultConfig verifies default configuration values
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Provider.Name != "github" {
		t.Errorf("Provider.Name = %q, want github", cfg.Provider.Name)
	}
	if cfg.Timeout != 120*time.Second {
		t.Errorf("Timeout = %v, want 2m0s", cfg.Timeout)
	}
	if cfg.Azure.Timeout != 30*time.Second {
		t.Errorf("Azure.Timeout = %v, want 30s", cfg.Azure.Timeout)
	}
	if cfg.Generation.Temperature != 0.7 || cfg.Generation.MaxOutputTokens != 4000 {
		t.Errorf("Generation = %+v, want temperature 0.7 and 4000 tokens", cfg.Generation)
	}
	if cfg.Validation.MaxMismatchRatio != 0.3 {
		t.Errorf("MaxMismatchRatio = %v, want 0.3", cfg.Validation.MaxMismatchRatio)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

// TestLoadConfigValidFile tests merging a YAML file over the defaults
func TestLoadConfigValidFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `provider:
  name: Anthropic
  model: claude-3-5-sonnet-20241022
timeout: 45s
log_level: debug
validation:
  max_mismatch_ratio: 0.5
rate_limit:
  wait: true
  max_wait: 1h
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Provider.Name != "anthropic" {
		t.Errorf("Provider.Name = %q, want anthropic", cfg.Provider.Name)
	}
	if cfg.Timeout != 45*time.Second {
		t.Errorf("Timeout = %v, want 45s", cfg.Timeout)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.Validation.MaxMismatchRatio != 0.5 {
		t.Errorf("MaxMismatchRatio = %v, want 0.5", cfg.Validation.MaxMismatchRatio)
	}
	if cfg.Validation.RowDetailLimit != 3 {
		t.Errorf("RowDetailLimit = %d, want default 3", cfg.Validation.RowDetailLimit)
	}
	if !cfg.RateLimit.Wait || cfg.RateLimit.MaxWait != time.Hour {
		t.Errorf("RateLimit = %+v, want wait for up to 1h", cfg.RateLimit)
	}
	if !cfg.Generation.Coverage {
		t.Error("Generation.Coverage default should survive a partial file")
	}
}

func TestLoadConfigMissingAndMalformed(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want default info", cfg.LogLevel)
	}

	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("provider: [unclosed"), 0644)
	if _, err := LoadConfig(bad); err == nil {
		t.Error("malformed YAML should error")
	}

	badDuration := filepath.Join(dir, "dur.yaml")
	os.WriteFile(badDuration, []byte("timeout: soon\n"), 0644)
	if _, err := LoadConfig(badDuration); err == nil {
		t.Error("invalid duration should error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Provider.Name = "gemini"
	cfg.RateLimit.MaxWait = 90 * time.Second

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if loaded.Provider.Name != "gemini" || loaded.RateLimit.MaxWait != 90*time.Second {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}

func TestMergeWithFlags(t *testing.T) {
	cfg := DefaultConfig()
	provider := " OpenAI "
	timeout := 10 * time.Second
	wait := true
	cfg.MergeWithFlags(Overrides{Provider: &provider, Timeout: &timeout, WaitOnRateLimit: &wait})

	if cfg.Provider.Name != "openai" {
		t.Errorf("Provider.Name = %q, want openai", cfg.Provider.Name)
	}
	if cfg.Timeout != timeout {
		t.Errorf("Timeout = %v, want %v", cfg.Timeout, timeout)
	}
	if !cfg.RateLimit.Wait {
		t.Error("RateLimit.Wait should be set from flag")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("unset flag changed LogLevel to %q", cfg.LogLevel)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"unknown provider", func(c *Config) { c.Provider.Name = "watson" }, "invalid provider"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, "timeout"},
		{"temperature too high", func(c *Config) { c.Generation.Temperature = 3 }, "temperature"},
		{"zero tokens", func(c *Config) { c.Generation.MaxOutputTokens = 0 }, "max_output_tokens"},
		{"ratio zero", func(c *Config) { c.Validation.MaxMismatchRatio = 0 }, "max_mismatch_ratio"},
		{"ratio above one", func(c *Config) { c.Validation.MaxMismatchRatio = 1.5 }, "max_mismatch_ratio"},
		{"negative max wait", func(c *Config) { c.RateLimit.MaxWait = -1 }, "max_wait"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "from-env")

	cfg := DefaultConfig()
	cfg.Provider.Name = "openai"
	if got := cfg.APIKey(); got != "from-env" {
		t.Errorf("APIKey() = %q, want from-env", got)
	}

	cfg.Provider.APIKey = "from-file"
	if got := cfg.LLMConfig().APIKey; got != "from-file" {
		t.Errorf("LLMConfig().APIKey = %q, want from-file", got)
	}

	cfg.Provider.Name = "claude-cli"
	cfg.Provider.APIKey = ""
	if got := cfg.APIKey(); got != "" {
		t.Errorf("claude-cli APIKey() = %q, want empty", got)
	}
}
