package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ClaudeCLI generates completions by running the local claude binary in
// print mode. It follows the http.Client pattern: create once, use many
// times.
type ClaudeCLI struct {
	// ClaudePath is the path to the claude CLI binary.
	// Defaults to "claude" (found in PATH).
	ClaudePath string

	// Timeout bounds each invocation. Zero means no timeout beyond ctx.
	Timeout time.Duration

	// ModelName is passed with --model when set.
	ModelName string

	// run executes the command; replaced in tests.
	run func(cmd *exec.Cmd) ([]byte, error)
}

// claudeResult is the --output-format json envelope.
type claudeResult struct {
	Type    string `json:"type"`
	Result  string `json:"result"`
	IsError bool   `json:"is_error"`
}

// NewClaudeCLI creates a ClaudeCLI from provider config.
func NewClaudeCLI(cfg Config) *ClaudeCLI {
	path := cfg.ClaudePath
	if path == "" {
		path = "claude"
	}
	return &ClaudeCLI{
		ClaudePath: path,
		Timeout:    cfg.Timeout,
		ModelName:  cfg.Model,
		run:        func(cmd *exec.Cmd) ([]byte, error) { return cmd.CombinedOutput() },
	}
}

// Name returns the provider name.
func (c *ClaudeCLI) Name() string { return ProviderClaudeCLI }

// Model returns the configured model or "default".
func (c *ClaudeCLI) Model() string {
	if c.ModelName == "" {
		return "default"
	}
	return c.ModelName
}

// Generate runs one print-mode invocation. Temperature and token limits are
// not exposed by the CLI and are ignored; image attachments are rejected.
func (c *ClaudeCLI) Generate(ctx context.Context, req Request) (string, error) {
	if req.UserPrompt == "" {
		return "", &ProviderError{Provider: ProviderClaudeCLI, Message: "prompt is required"}
	}
	if len(req.Images) > 0 {
		return "", &ProviderError{Provider: ProviderClaudeCLI, Message: "image attachments are not supported"}
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.ClaudePath, c.args(req)...)
	SetCleanEnv(cmd)

	output, err := c.run(cmd)
	if err != nil {
		return "", classifyError(ProviderClaudeCLI,
			fmt.Errorf("claude invocation failed: %w (output: %s)", err, truncate(string(output), 500)))
	}
	return parseClaudeOutput(output)
}

// args builds the command line. The system prompt is always passed
// explicitly and hooks are disabled for automation.
func (c *ClaudeCLI) args(req Request) []string {
	var args []string
	if req.SystemPrompt != "" {
		args = append(args, "--system-prompt", req.SystemPrompt)
	}
	if c.ModelName != "" {
		args = append(args, "--model", c.ModelName)
	}
	args = append(args, "-p", req.UserPrompt)
	args = append(args, "--output-format", "json")
	args = append(args, "--settings", `{"disableAllHooks": true}`)
	return args
}

// parseClaudeOutput extracts the result text from the JSON envelope, falling
// back to the raw output when it is not JSON.
func parseClaudeOutput(output []byte) (string, error) {
	var res claudeResult
	if err := json.Unmarshal(output, &res); err != nil {
		return strings.TrimSpace(string(output)), nil
	}
	if res.IsError {
		return "", classifyError(ProviderClaudeCLI, fmt.Errorf("claude returned an error: %s", res.Result))
	}
	return strings.TrimSpace(res.Result), nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

var _ Provider = (*ClaudeCLI)(nil)
