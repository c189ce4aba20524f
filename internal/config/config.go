package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harrison/casegen/internal/generation"
	"github.com/harrison/casegen/internal/llm"
	"github.com/harrison/casegen/internal/validation"
)

// ProviderConfig selects and configures the text-generation provider
type ProviderConfig struct {
	// Name is one of github, openai, anthropic, gemini, claude-cli
	Name string `yaml:"name"`

	// Model overrides the provider's default model
	Model string `yaml:"model"`

	// APIKey is used when set; otherwise the provider's environment variable is read
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider endpoint
	BaseURL string `yaml:"base_url"`

	// ClaudePath is the claude binary used by the claude-cli provider
	ClaudePath string `yaml:"claude_path"`

	// RequestsPerSecond paces provider calls
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// AzureConfig configures the work-item export
type AzureConfig struct {
	// Organization is the Azure DevOps organization URL
	Organization string `yaml:"organization"`

	// Timeout bounds each az CLI call
	Timeout time.Duration `yaml:"timeout"`
}

// GenerationConfig tunes generation and refinement requests
type GenerationConfig struct {
	Temperature     float64 `yaml:"temperature"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`

	// PromptTemplate is a custom prompt file; empty uses the built-in prompt
	PromptTemplate string `yaml:"prompt_template"`

	// CSVTemplate is a custom format example; empty uses the built-in example
	CSVTemplate string `yaml:"csv_template"`

	// ChangeSummary enables the provider-written refinement summary
	ChangeSummary bool `yaml:"change_summary"`

	// Coverage runs coverage analysis after generation and refinement
	Coverage bool `yaml:"coverage"`
}

// ValidationConfig tunes the structural validator
type ValidationConfig struct {
	MaxMismatchRatio float64 `yaml:"max_mismatch_ratio"`
	RowDetailLimit   int     `yaml:"row_detail_limit"`
}

// RateLimitConfig controls waiting out provider rate limits
type RateLimitConfig struct {
	// Wait sleeps until the limit resets instead of failing
	Wait bool `yaml:"wait"`

	// MaxWait is the longest reset the tool will wait for
	MaxWait time.Duration `yaml:"max_wait"`
}

// Config represents casegen configuration options
type Config struct {
	Provider   ProviderConfig   `yaml:"provider"`
	Azure      AzureConfig      `yaml:"azure"`
	Generation GenerationConfig `yaml:"generation"`
	Validation ValidationConfig `yaml:"validation"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`

	// Timeout bounds a single provider request
	Timeout time.Duration `yaml:"timeout"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is where run logs are written; relative paths resolve against the home
	LogDir string `yaml:"log_dir"`

	// DataDir holds exports, test case files and images
	DataDir string `yaml:"data_dir"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			Name:              llm.ProviderGitHub,
			RequestsPerSecond: 1,
		},
		Azure: AzureConfig{
			Timeout: 30 * time.Second,
		},
		Generation: GenerationConfig{
			Temperature:     generation.DefaultTemperature,
			MaxOutputTokens: generation.DefaultMaxOutputTokens,
			ChangeSummary:   true,
			Coverage:        true,
		},
		Validation: ValidationConfig{
			MaxMismatchRatio: validation.DefaultMaxMismatchRatio,
			RowDetailLimit:   validation.DefaultRowDetailLimit,
		},
		RateLimit: RateLimitConfig{
			Wait:    false,
			MaxWait: 15 * time.Minute,
		},
		Timeout:  120 * time.Second,
		LogLevel: "info",
		LogDir:   "logs",
		DataDir:  "data",
	}
}

// LoadConfig loads configuration from path on top of the defaults.
// A missing file yields the defaults; a malformed one is an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Keys present in the file overwrite defaults; absent keys keep them.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.Provider.Name = strings.ToLower(strings.TrimSpace(cfg.Provider.Name))
	return cfg, nil
}

// LoadConfigFromHome loads config.yaml from the casegen home directory
func LoadConfigFromHome(home string) (*Config, error) {
	return LoadConfig(filepath.Join(home, ConfigFileName))
}

// Save writes the configuration as YAML
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// Overrides holds CLI flag values. Nil fields leave the configuration alone.
type Overrides struct {
	Provider        *string
	Model           *string
	Timeout         *time.Duration
	LogLevel        *string
	LogDir          *string
	Temperature     *float64
	MaxOutputTokens *int
	PromptTemplate  *string
	WaitOnRateLimit *bool
	Coverage        *bool
}

// MergeWithFlags merges CLI flags into the configuration.
// Non-nil flag values take precedence over file settings.
func (c *Config) MergeWithFlags(o Overrides) {
	if o.Provider != nil {
		c.Provider.Name = strings.ToLower(strings.TrimSpace(*o.Provider))
	}
	if o.Model != nil {
		c.Provider.Model = *o.Model
	}
	if o.Timeout != nil {
		c.Timeout = *o.Timeout
	}
	if o.LogLevel != nil {
		c.LogLevel = *o.LogLevel
	}
	if o.LogDir != nil {
		c.LogDir = *o.LogDir
	}
	if o.Temperature != nil {
		c.Generation.Temperature = *o.Temperature
	}
	if o.MaxOutputTokens != nil {
		c.Generation.MaxOutputTokens = *o.MaxOutputTokens
	}
	if o.PromptTemplate != nil {
		c.Generation.PromptTemplate = *o.PromptTemplate
	}
	if o.WaitOnRateLimit != nil {
		c.RateLimit.Wait = *o.WaitOnRateLimit
	}
	if o.Coverage != nil {
		c.Generation.Coverage = *o.Coverage
	}
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	if !isSupportedProvider(c.Provider.Name) {
		return fmt.Errorf("invalid provider %q, must be one of: %s",
			c.Provider.Name, strings.Join(llm.SupportedProviders(), ", "))
	}
	if c.Provider.RequestsPerSecond < 0 {
		return fmt.Errorf("provider.requests_per_second must be >= 0, got %v", c.Provider.RequestsPerSecond)
	}

	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0, got %v", c.Timeout)
	}
	if c.Azure.Timeout < 0 {
		return fmt.Errorf("azure.timeout must be >= 0, got %v", c.Azure.Timeout)
	}
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		return fmt.Errorf("generation.temperature must be between 0 and 2, got %v", c.Generation.Temperature)
	}
	if c.Generation.MaxOutputTokens <= 0 {
		return fmt.Errorf("generation.max_output_tokens must be > 0, got %d", c.Generation.MaxOutputTokens)
	}
	if c.Validation.MaxMismatchRatio <= 0 || c.Validation.MaxMismatchRatio > 1 {
		return fmt.Errorf("validation.max_mismatch_ratio must be in (0, 1], got %v", c.Validation.MaxMismatchRatio)
	}
	if c.Validation.RowDetailLimit < 0 {
		return fmt.Errorf("validation.row_detail_limit must be >= 0, got %d", c.Validation.RowDetailLimit)
	}
	if c.RateLimit.MaxWait < 0 {
		return fmt.Errorf("rate_limit.max_wait must be >= 0, got %v", c.RateLimit.MaxWait)
	}
	return nil
}

// APIKey returns the configured key, falling back to the provider's
// environment variable.
func (c *Config) APIKey() string {
	if c.Provider.APIKey != "" {
		return c.Provider.APIKey
	}
	if env := llm.APIKeyEnv(c.Provider.Name); env != "" {
		return os.Getenv(env)
	}
	return ""
}

// LLMConfig builds the provider factory input.
func (c *Config) LLMConfig() llm.Config {
	return llm.Config{
		Provider:          c.Provider.Name,
		Model:             c.Provider.Model,
		APIKey:            c.APIKey(),
		BaseURL:           c.Provider.BaseURL,
		Timeout:           c.Timeout,
		RequestsPerSecond: c.Provider.RequestsPerSecond,
		ClaudePath:        c.Provider.ClaudePath,
	}
}

// ValidationOptions builds the validator options.
func (c *Config) ValidationOptions() validation.Options {
	return validation.Options{
		MaxMismatchRatio: c.Validation.MaxMismatchRatio,
		RowDetailLimit:   c.Validation.RowDetailLimit,
	}
}

func isSupportedProvider(name string) bool {
	for _, p := range llm.SupportedProviders() {
		if p == name {
			return true
		}
	}
	return false
}
