package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// GeminiClient generates content through the Google GenAI SDK.
type GeminiClient struct {
	client  *genai.Client
	model   string
	limiter *rate.Limiter
}

// NewGeminiClient creates a Gemini API client.
func NewGeminiClient(ctx context.Context, cfg Config) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key required (set %s)", APIKeyEnv(ProviderGemini))
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiClient{
		client:  client,
		model:   cfg.Model,
		limiter: newLimiter(cfg.RequestsPerSecond),
	}, nil
}

// Name returns the provider name.
func (c *GeminiClient) Name() string { return ProviderGemini }

// Model returns the model identifier.
func (c *GeminiClient) Model() string { return c.model }

// Generate sends one GenerateContent call.
func (c *GeminiClient) Generate(ctx context.Context, req Request) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", &ProviderError{Provider: ProviderGemini, Err: fmt.Errorf("rate limiter wait: %w", err)}
	}

	parts := []*genai.Part{genai.NewPartFromText(req.UserPrompt)}
	for _, img := range req.Images {
		parts = append(parts, genai.NewPartFromBytes(img.Data, img.MediaType))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	config := &genai.GenerateContentConfig{}
	if req.SystemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if req.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.MaxOutputTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxOutputTokens)
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", geminiError(err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", &ProviderError{Provider: ProviderGemini, Message: "empty response from API"}
	}
	return text, nil
}

func geminiError(err error) *ProviderError {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		pe := classifyHTTP(ProviderGemini, apiErr.Code, http.Header{}, apiErr.Status+": "+apiErr.Message)
		if apiErr.Code == http.StatusTooManyRequests && pe.RetryAfter == 0 {
			pe.RetryAfter = geminiRetryDelay(apiErr)
		}
		pe.Err = err
		return pe
	}
	return classifyError(ProviderGemini, err)
}

// geminiRetryDelay reads the RetryInfo detail ("retryDelay": "31s") that the
// Gemini API attaches to quota errors.
func geminiRetryDelay(apiErr genai.APIError) time.Duration {
	for _, detail := range apiErr.Details {
		if v, ok := detail["retryDelay"].(string); ok {
			if d, err := time.ParseDuration(v); err == nil {
				return d
			}
		}
	}
	return 0
}

var _ Provider = (*GeminiClient)(nil)
