package llm

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/harrison/casegen/internal/budget"
)

// ErrorKind separates rate limits from every other provider failure.
type ErrorKind int

const (
	// KindOther covers network, auth, server and response-shape failures.
	KindOther ErrorKind = iota
	// KindRateLimited means the provider refused the call for quota reasons.
	KindRateLimited
)

// String returns the string representation of ErrorKind.
func (k ErrorKind) String() string {
	if k == KindRateLimited {
		return "rate-limited"
	}
	return "other"
}

// ProviderError is returned by every Provider on failure.
type ProviderError struct {
	Provider   string
	Kind       ErrorKind
	StatusCode int           // HTTP status, 0 when not applicable
	Message    string        // Human-readable detail from the provider
	RetryAfter time.Duration // Known wait for rate limits, 0 otherwise
	Err        error
}

// Error implements the error interface for ProviderError.
func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s provider error", e.Provider)
	if e.Kind == KindRateLimited {
		msg = fmt.Sprintf("%s rate limit reached", e.Provider)
		if e.RetryAfter > 0 {
			msg += fmt.Sprintf(" (wait %s)", budget.FormatWait(int64(e.RetryAfter.Seconds())))
		}
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" [%d]", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil && e.Message == "" {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Unwrap returns the underlying error for error wrapping support.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// RateLimitInfo converts a rate-limited error into waiter input.
// Returns nil for other kinds.
func (e *ProviderError) RateLimitInfo() *budget.RateLimitInfo {
	if e.Kind != KindRateLimited {
		return nil
	}
	return budget.NewRateLimitInfo(int64(e.RetryAfter.Seconds()), e.Message, "error")
}

// AsRateLimited reports whether err is a rate-limit ProviderError.
func AsRateLimited(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) && pe.Kind == KindRateLimited {
		return pe, true
	}
	return nil, false
}

// classifyHTTP builds a ProviderError from a non-2xx response.
func classifyHTTP(provider string, status int, header http.Header, message string) *ProviderError {
	pe := &ProviderError{Provider: provider, StatusCode: status, Message: message}

	info := budget.ParseRateLimitFromError(message)
	if status == http.StatusTooManyRequests || info != nil {
		pe.Kind = KindRateLimited
		wait := budget.ParseRetryAfterHeader(header.Get("Retry-After"))
		if wait == 0 && info != nil {
			wait = info.WaitSeconds
		}
		pe.RetryAfter = time.Duration(wait) * time.Second
	}
	return pe
}

// classifyError wraps a transport or SDK error.
func classifyError(provider string, err error) *ProviderError {
	pe := &ProviderError{Provider: provider, Err: err}
	if info := budget.ParseRateLimitFromError(err.Error()); info != nil {
		pe.Kind = KindRateLimited
		pe.Message = err.Error()
		pe.RetryAfter = time.Duration(info.WaitSeconds) * time.Second
	}
	return pe
}
