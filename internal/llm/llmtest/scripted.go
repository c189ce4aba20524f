// Package llmtest provides a scripted llm.Provider for tests.
package llmtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/harrison/casegen/internal/llm"
)

// Reply is one scripted outcome: Text is returned unless Err is set.
type Reply struct {
	Text string
	Err  error
}

// ScriptedProvider returns queued replies in order and records every request.
type ScriptedProvider struct {
	mu       sync.Mutex
	replies  []Reply
	Requests []llm.Request
}

// NewScriptedProvider queues the given replies.
func NewScriptedProvider(replies ...Reply) *ScriptedProvider {
	return &ScriptedProvider{replies: replies}
}

// Text is shorthand for a successful reply.
func Text(s string) Reply { return Reply{Text: s} }

// Fail is shorthand for a failed reply.
func Fail(err error) Reply { return Reply{Err: err} }

// Name returns "scripted".
func (p *ScriptedProvider) Name() string { return "scripted" }

// Model returns "scripted-model".
func (p *ScriptedProvider) Model() string { return "scripted-model" }

// Generate pops the next reply. Running out of replies is an error.
func (p *ScriptedProvider) Generate(ctx context.Context, req llm.Request) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Requests = append(p.Requests, req)
	if len(p.replies) == 0 {
		return "", &llm.ProviderError{Provider: "scripted", Message: fmt.Sprintf("no reply scripted for call %d", len(p.Requests))}
	}
	r := p.replies[0]
	p.replies = p.replies[1:]
	return r.Text, r.Err
}

// Calls returns how many requests were made.
func (p *ScriptedProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Requests)
}

var _ llm.Provider = (*ScriptedProvider)(nil)
