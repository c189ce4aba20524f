package budget

import (
	"context"
	"testing"
	"time"
)

// mockWaiterLogger captures countdown calls for testing
type mockWaiterLogger struct {
	calls []time.Duration
}

func (m *mockWaiterLogger) LogRateLimitCountdown(remaining, total time.Duration) {
	m.calls = append(m.calls, remaining)
}

func TestRateLimitWaiter_ShouldWait(t *testing.T) {
	waiter := NewRateLimitWaiter(time.Hour, 5*time.Second, nil)

	tests := []struct {
		name string
		info *RateLimitInfo
		want bool
	}{
		{"nil info", nil, false},
		{"unknown wait", &RateLimitInfo{DetectedAt: time.Now()}, false},
		{"short wait", NewRateLimitInfo(120, "", "header"), true},
		{"too long", NewRateLimitInfo(86400, "", "error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := waiter.ShouldWait(tt.info); got != tt.want {
				t.Errorf("ShouldWait() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRateLimitWaiter_TimeUntilResume(t *testing.T) {
	waiter := NewRateLimitWaiter(time.Hour, 10*time.Second, nil)

	if got := waiter.TimeUntilResume(nil); got != 0 {
		t.Errorf("TimeUntilResume(nil) = %v, want 0", got)
	}

	expired := &RateLimitInfo{ResetAt: time.Now().Add(-time.Minute)}
	if got := waiter.TimeUntilResume(expired); got != 10*time.Second {
		t.Errorf("expired limit should wait only the buffer, got %v", got)
	}

	info := NewRateLimitInfo(60, "", "header")
	got := waiter.TimeUntilResume(info)
	if got < 65*time.Second || got > 70*time.Second {
		t.Errorf("TimeUntilResume() = %v, want about 70s", got)
	}
}

func TestRateLimitWaiter_WaitForReset_Completes(t *testing.T) {
	logger := &mockWaiterLogger{}
	waiter := NewRateLimitWaiter(time.Hour, 20*time.Millisecond, logger)
	waiter.tick = 5 * time.Millisecond

	info := &RateLimitInfo{ResetAt: time.Now().Add(-time.Second)}

	start := time.Now()
	if err := waiter.WaitForReset(context.Background(), info); err != nil {
		t.Fatalf("WaitForReset() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("returned after %v, expected at least the safety buffer", elapsed)
	}
	if len(logger.calls) == 0 {
		t.Error("expected at least the initial countdown call")
	}
}

func TestRateLimitWaiter_WaitForReset_Cancelled(t *testing.T) {
	waiter := NewRateLimitWaiter(time.Hour, time.Minute, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := waiter.WaitForReset(ctx, NewRateLimitInfo(60, "", "header")); err != context.Canceled {
		t.Errorf("WaitForReset() error = %v, want context.Canceled", err)
	}
}

func TestRateLimitWaiter_WaitForReset_NilInfo(t *testing.T) {
	waiter := NewRateLimitWaiter(time.Hour, time.Minute, nil)
	if err := waiter.WaitForReset(context.Background(), nil); err != nil {
		t.Errorf("WaitForReset(nil) error = %v", err)
	}
}
