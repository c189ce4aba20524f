package budget

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// RateLimitInfo contains parsed rate limit details
type RateLimitInfo struct {
	DetectedAt  time.Time
	ResetAt     time.Time // Zero when the provider gave no wait time
	WaitSeconds int64
	RawMessage  string
	Source      string // "error", "header", "body"
}

// TimeUntilReset calculates duration until the rate limit resets
func (r *RateLimitInfo) TimeUntilReset() time.Duration {
	if r.ResetAt.IsZero() {
		return 0
	}
	return time.Until(r.ResetAt)
}

// IsExpired checks if the rate limit has already expired
func (r *RateLimitInfo) IsExpired() bool {
	if r.ResetAt.IsZero() {
		return true
	}
	return time.Now().After(r.ResetAt)
}

// KnownWait reports whether the provider told us how long to wait.
func (r *RateLimitInfo) KnownWait() bool {
	return r.WaitSeconds > 0
}

var (
	// GitHub Models: "RateLimitReached ... Please wait 86400 seconds before retrying."
	waitSecondsPattern = regexp.MustCompile(`(?i)wait (\d+) seconds?`)

	// "retry in 30 seconds" / "retry after 30s"
	retrySecondsPattern = regexp.MustCompile(`(?i)retry (?:in|after)\s+(\d+)\s*(?:seconds?|s)\b`)

	// Generic indicators across OpenAI, Anthropic, GitHub Models and Gemini
	rateLimitIndicator = regexp.MustCompile(`(?i)(RateLimitReached|rate.?limit|usage.?limit|\b429\b|too.?many.?requests|quota.?exceeded|RESOURCE_EXHAUSTED)`)

	// Text that merely talks about rate limits, such as our own log lines
	falsePositivePattern = regexp.MustCompile(`(?i)(\[RATE.?LIMIT\]|` +
		"`rate.?limit|" +
		`waiting for reset\.\.\.|` +
		`until auto-resume)`)
)

// IsRateLimitMessage reports whether text describes a provider rate limit.
func IsRateLimitMessage(text string) bool {
	if text == "" || !rateLimitIndicator.MatchString(text) {
		return false
	}
	return !falsePositivePattern.MatchString(text)
}

// ParseRateLimitFromError parses rate limit info from a provider error
// message. It returns nil when the message is not a rate limit.
func ParseRateLimitFromError(errMsg string) *RateLimitInfo {
	if !IsRateLimitMessage(errMsg) {
		return nil
	}

	info := &RateLimitInfo{
		DetectedAt: time.Now(),
		RawMessage: errMsg,
		Source:     "error",
	}

	for _, p := range []*regexp.Regexp{waitSecondsPattern, retrySecondsPattern} {
		if matches := p.FindStringSubmatch(errMsg); len(matches) > 1 {
			if seconds, err := strconv.ParseInt(matches[1], 10, 64); err == nil {
				info.setWait(seconds)
				return info
			}
		}
	}

	if seconds := retryAfterFromJSON(errMsg); seconds > 0 {
		info.setWait(seconds)
		info.Source = "body"
	}
	return info
}

// ParseRetryAfterHeader reads an HTTP Retry-After value given in seconds or
// as an HTTP date. It returns 0 when the header is absent or unparseable.
func ParseRetryAfterHeader(value string) int64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if seconds, err := strconv.ParseInt(value, 10, 64); err == nil {
		return seconds
	}
	if at, err := time.Parse(time.RFC1123, value); err == nil {
		if d := time.Until(at); d > 0 {
			return int64(d.Seconds())
		}
	}
	return 0
}

// NewRateLimitInfo builds info for a known wait, e.g. from a Retry-After header.
func NewRateLimitInfo(waitSeconds int64, raw, source string) *RateLimitInfo {
	info := &RateLimitInfo{DetectedAt: time.Now(), RawMessage: raw, Source: source}
	info.setWait(waitSeconds)
	return info
}

func (r *RateLimitInfo) setWait(seconds int64) {
	if seconds <= 0 {
		return
	}
	r.WaitSeconds = seconds
	r.ResetAt = r.DetectedAt.Add(time.Duration(seconds) * time.Second)
}

// FormatWait renders a wait as "Xh Ym", or "Ym" when under an hour.
func FormatWait(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

// retryAfterFromJSON looks for a retry_after field in a JSON error body,
// either at the top level or inside an "error" object.
func retryAfterFromJSON(data string) int64 {
	start := strings.Index(data, "{")
	end := strings.LastIndex(data, "}")
	if start < 0 || end <= start {
		return 0
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(data[start:end+1]), &obj); err != nil {
		return 0
	}
	if v := numberField(obj["retry_after"]); v > 0 {
		return v
	}
	if inner, ok := obj["error"].(map[string]any); ok {
		return numberField(inner["retry_after"])
	}
	return 0
}

func numberField(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case string:
		if seconds, err := strconv.ParseInt(n, 10, 64); err == nil {
			return seconds
		}
	}
	return 0
}
