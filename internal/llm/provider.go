// Package llm provides text-generation providers behind a single interface.
//
// Every provider takes a system prompt, a user prompt, optional image
// attachments and sampling limits, and returns the raw completion text.
// Provider identity is only inspected by NewProvider.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Supported provider names
const (
	ProviderGitHub    = "github"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderClaudeCLI = "claude-cli"
)

// Provider defaults
const (
	DefaultGitHubBaseURL    = "https://models.inference.ai.azure.com"
	DefaultOpenAIBaseURL    = "https://api.openai.com/v1"
	DefaultAnthropicBaseURL = "https://api.anthropic.com"

	DefaultGitHubModel    = "Mistral-large-2411"
	DefaultOpenAIModel    = "gpt-4o"
	DefaultAnthropicModel = "claude-3-5-sonnet-20241022"
	DefaultGeminiModel    = "gemini-2.5-flash"

	defaultTimeout           = 120 * time.Second
	defaultRequestsPerSecond = 1.0
	defaultBurst             = 2
)

// Image is an attachment sent alongside the user prompt.
type Image struct {
	Name      string
	MediaType string // e.g. "image/png"
	Data      []byte
}

// Request is one completion call.
type Request struct {
	SystemPrompt    string
	UserPrompt      string
	Images          []Image
	Temperature     float64
	MaxOutputTokens int
}

// Provider produces a completion for a request.
// Failures are returned as *ProviderError.
type Provider interface {
	Name() string
	Model() string
	Generate(ctx context.Context, req Request) (string, error)
}

// Config selects and configures a provider.
type Config struct {
	Provider          string
	Model             string
	APIKey            string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64 // Client-side pacing; 0 selects the default
	ClaudePath        string  // claude-cli only
}

// NewProvider builds the provider named by cfg.Provider.
func NewProvider(ctx context.Context, cfg Config) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderGitHub:
		return NewOpenAIClient(ProviderGitHub, withDefaults(cfg, DefaultGitHubBaseURL, DefaultGitHubModel))
	case ProviderOpenAI:
		return NewOpenAIClient(ProviderOpenAI, withDefaults(cfg, DefaultOpenAIBaseURL, DefaultOpenAIModel))
	case ProviderAnthropic:
		return NewAnthropicClient(withDefaults(cfg, DefaultAnthropicBaseURL, DefaultAnthropicModel))
	case ProviderGemini:
		return NewGeminiClient(ctx, withDefaults(cfg, "", DefaultGeminiModel))
	case ProviderClaudeCLI:
		return NewClaudeCLI(cfg), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (supported: %s)", cfg.Provider, strings.Join(SupportedProviders(), ", "))
	}
}

// SupportedProviders lists provider names accepted by NewProvider.
func SupportedProviders() []string {
	return []string{ProviderGitHub, ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderClaudeCLI}
}

// APIKeyEnv returns the environment variable conventionally holding the
// provider's credential, or "" when none is needed.
func APIKeyEnv(provider string) string {
	switch provider {
	case ProviderGitHub:
		return "GITHUB_TOKEN"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

// visionModels are model name fragments known to accept image input.
var visionModels = []string{"gpt-4o", "gpt-4-turbo", "gpt-4-vision", "gpt-4.1", "claude-3", "claude-sonnet", "claude-opus", "gemini"}

// SupportsImages reports whether a provider/model pair accepts attachments.
func SupportsImages(provider, model string) bool {
	if provider == ProviderClaudeCLI {
		return false
	}
	m := strings.ToLower(model)
	for _, v := range visionModels {
		if strings.Contains(m, v) {
			return true
		}
	}
	return false
}

// VerifyAccess sends a minimal request to confirm the key can use the model.
func VerifyAccess(ctx context.Context, p Provider) error {
	_, err := p.Generate(ctx, Request{UserPrompt: "test", MaxOutputTokens: 5})
	return err
}

func withDefaults(cfg Config, baseURL, model string) Config {
	if cfg.BaseURL == "" {
		cfg.BaseURL = baseURL
	}
	if cfg.Model == "" {
		cfg.Model = model
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return cfg
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		rps = defaultRequestsPerSecond
	}
	return rate.NewLimiter(rate.Limit(rps), defaultBurst)
}
