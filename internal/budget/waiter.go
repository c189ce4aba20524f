package budget

import (
	"context"
	"time"
)

// countdownInterval is how often a waiting caller is shown the remaining time
const countdownInterval = 1 * time.Second

// WaiterLogger receives countdown updates while a caller waits out a limit.
type WaiterLogger interface {
	LogRateLimitCountdown(remaining, total time.Duration)
}

// RateLimitWaiter blocks a caller until a provider rate limit has reset.
// It is opt-in: the generation pipeline itself never waits.
type RateLimitWaiter struct {
	maxWait      time.Duration // Longer waits are refused
	tick         time.Duration
	safetyBuffer time.Duration // Extra wait after reset
	logger       WaiterLogger  // Can be nil
}

// NewRateLimitWaiter creates a waiter with the given limits
func NewRateLimitWaiter(maxWait, safetyBuffer time.Duration, logger WaiterLogger) *RateLimitWaiter {
	return &RateLimitWaiter{
		maxWait:      maxWait,
		tick:         countdownInterval,
		safetyBuffer: safetyBuffer,
		logger:       logger,
	}
}

// ShouldWait reports whether the limit names a wait short enough to sit out.
// Limits without a known wait are never waited on.
func (w *RateLimitWaiter) ShouldWait(info *RateLimitInfo) bool {
	if info == nil || !info.KnownWait() {
		return false
	}
	return w.TimeUntilResume(info) <= w.maxWait
}

// WaitForReset blocks until the limit resets plus the safety buffer.
// Returns the context error if cancelled.
func (w *RateLimitWaiter) WaitForReset(ctx context.Context, info *RateLimitInfo) error {
	if info == nil {
		return nil
	}

	total := w.TimeUntilResume(info)
	deadline := time.Now().Add(total)
	timer := time.NewTimer(total)
	defer timer.Stop()
	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()

	if w.logger != nil {
		w.logger.LogRateLimitCountdown(total, total)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		case now := <-ticker.C:
			if remaining := deadline.Sub(now); remaining > 0 && w.logger != nil {
				w.logger.LogRateLimitCountdown(remaining, total)
			}
		}
	}
}

// TimeUntilResume returns the total time to wait including the safety buffer
func (w *RateLimitWaiter) TimeUntilResume(info *RateLimitInfo) time.Duration {
	if info == nil {
		return 0
	}
	if info.IsExpired() {
		return w.safetyBuffer
	}
	return info.TimeUntilReset() + w.safetyBuffer
}
