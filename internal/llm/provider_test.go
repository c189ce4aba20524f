package llm

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		cfg       Config
		wantName  string
		wantModel string
		wantErr   string
	}{
		{"github defaults", Config{Provider: "github", APIKey: "k"}, ProviderGitHub, DefaultGitHubModel, ""},
		{"openai custom model", Config{Provider: "OpenAI", APIKey: "k", Model: "gpt-4o-mini"}, ProviderOpenAI, "gpt-4o-mini", ""},
		{"anthropic", Config{Provider: "anthropic", APIKey: "k"}, ProviderAnthropic, DefaultAnthropicModel, ""},
		{"claude cli needs no key", Config{Provider: "claude-cli"}, ProviderClaudeCLI, "default", ""},
		{"gemini without key", Config{Provider: "gemini"}, "", "", "GEMINI_API_KEY"},
		{"unknown", Config{Provider: "watson"}, "", "", "unknown provider"},
		{"missing key", Config{Provider: "github"}, "", "", "GITHUB_TOKEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(ctx, tt.cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, p.Name())
			assert.Equal(t, tt.wantModel, p.Model())
		})
	}
}

func TestNewProvider_GitHubBaseURL(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Provider: "github", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultGitHubBaseURL, p.(*OpenAIClient).baseURL)
}

func TestSupportsImages(t *testing.T) {
	assert.True(t, SupportsImages(ProviderGitHub, "gpt-4o"))
	assert.True(t, SupportsImages(ProviderAnthropic, "claude-3-5-sonnet-20241022"))
	assert.True(t, SupportsImages(ProviderGemini, "gemini-2.5-flash"))
	assert.False(t, SupportsImages(ProviderGitHub, "Mistral-large-2411"))
	assert.False(t, SupportsImages(ProviderClaudeCLI, "claude-3-opus"))
}

func TestProviderError_Unwrap(t *testing.T) {
	base := errors.New("dial tcp: refused")
	pe := classifyError("openai", base)
	assert.ErrorIs(t, pe, base)
	assert.Equal(t, KindOther, pe.Kind)
	assert.Nil(t, pe.RateLimitInfo())

	rl := classifyError("github", errors.New("RateLimitReached: Please wait 60 seconds"))
	assert.Equal(t, KindRateLimited, rl.Kind)
	info := rl.RateLimitInfo()
	require.NotNil(t, info)
	assert.Equal(t, int64(60), info.WaitSeconds)
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, ExtractJSON("Here: {\"a\":1} done"))
	assert.Equal(t, "no json", ExtractJSON("no json"))
}

func TestClaudeCLI_Generate(t *testing.T) {
	cli := NewClaudeCLI(Config{ClaudePath: "/usr/bin/claude", Model: "sonnet"})

	var gotArgs []string
	cli.run = func(cmd *exec.Cmd) ([]byte, error) {
		gotArgs = cmd.Args
		return []byte(`{"type":"result","result":"  csv text  ","is_error":false}`), nil
	}

	text, err := cli.Generate(context.Background(), Request{SystemPrompt: "sys", UserPrompt: "prompt"})
	require.NoError(t, err)
	assert.Equal(t, "csv text", text)

	joined := strings.Join(gotArgs, " ")
	assert.Contains(t, joined, "--system-prompt sys")
	assert.Contains(t, joined, "--model sonnet")
	assert.Contains(t, joined, "-p prompt")
	assert.Contains(t, joined, "--output-format json")
}

func TestClaudeCLI_Errors(t *testing.T) {
	cli := NewClaudeCLI(Config{})

	_, err := cli.Generate(context.Background(), Request{})
	assert.Error(t, err)

	_, err = cli.Generate(context.Background(), Request{UserPrompt: "x", Images: []Image{{}}})
	assert.ErrorContains(t, err, "not supported")

	cli.run = func(cmd *exec.Cmd) ([]byte, error) {
		return []byte("Claude usage limit reached. retry in 120 seconds"), errors.New("exit status 1")
	}
	_, err = cli.Generate(context.Background(), Request{UserPrompt: "x"})
	pe, ok := AsRateLimited(err)
	require.True(t, ok)
	assert.Equal(t, int64(120), int64(pe.RetryAfter.Seconds()))

	cli.run = func(cmd *exec.Cmd) ([]byte, error) {
		return []byte(`{"type":"result","result":"boom","is_error":true}`), nil
	}
	_, err = cli.Generate(context.Background(), Request{UserPrompt: "x"})
	assert.ErrorContains(t, err, "boom")
}

func TestClaudeCLI_PlainOutput(t *testing.T) {
	text, err := parseClaudeOutput([]byte("not json\n"))
	require.NoError(t, err)
	assert.Equal(t, "not json", text)
}
