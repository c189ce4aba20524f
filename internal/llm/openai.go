package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/time/rate"
)

// OpenAIClient talks to an OpenAI-compatible chat completions endpoint.
// It serves both OpenAI and GitHub Models, which differ only in base URL.
type OpenAIClient struct {
	name       string
	model      string
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature *float64        `json:"temperature,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string or []openAIPart
}

type openAIPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIImageURL struct {
	URL string `json:"url"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type openAIError struct {
	Error struct {
		Message string `json:"message"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// NewOpenAIClient creates a chat completions client registered under name.
func NewOpenAIClient(name string, cfg Config) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s API key required (set %s)", name, APIKeyEnv(name))
	}
	return &OpenAIClient{
		name:       name,
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    newLimiter(cfg.RequestsPerSecond),
	}, nil
}

// Name returns the provider name.
func (c *OpenAIClient) Name() string { return c.name }

// Model returns the model identifier.
func (c *OpenAIClient) Model() string { return c.model }

// Generate sends one chat completion request.
func (c *OpenAIClient) Generate(ctx context.Context, req Request) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", &ProviderError{Provider: c.name, Err: fmt.Errorf("rate limiter wait: %w", err)}
	}

	var messages []openAIMessage
	if req.SystemPrompt != "" {
		messages = append(messages, openAIMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, openAIMessage{Role: "user", Content: openAIUserContent(req)})

	body := openAIRequest{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: req.MaxOutputTokens,
	}
	if req.Temperature > 0 {
		t := req.Temperature
		body.Temperature = &t
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", &ProviderError{Provider: c.name, Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", &ProviderError{Provider: c.name, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", classifyError(c.name, fmt.Errorf("API request failed: %w", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ProviderError{Provider: c.name, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		msg := string(data)
		var errResp openAIError
		if json.Unmarshal(data, &errResp) == nil && errResp.Error.Message != "" {
			msg = errResp.Error.Message
			if code, ok := errResp.Error.Code.(string); ok && code != "" {
				msg = code + ": " + msg
			}
		}
		return "", classifyHTTP(c.name, resp.StatusCode, resp.Header, msg)
	}

	var out openAIResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", &ProviderError{Provider: c.name, Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	if len(out.Choices) == 0 {
		return "", &ProviderError{Provider: c.name, Message: "empty response from API"}
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

// openAIUserContent returns plain text, or text plus data-URL image parts
// when attachments are present.
func openAIUserContent(req Request) any {
	if len(req.Images) == 0 {
		return req.UserPrompt
	}
	parts := []openAIPart{{Type: "text", Text: req.UserPrompt}}
	for _, img := range req.Images {
		url := fmt.Sprintf("data:%s;base64,%s", img.MediaType, base64.StdEncoding.EncodeToString(img.Data))
		parts = append(parts, openAIPart{Type: "image_url", ImageURL: &openAIImageURL{URL: url}})
	}
	return parts
}

var _ Provider = (*OpenAIClient)(nil)
