package session

import (
	"context"
	"errors"

	"github.com/harrison/casegen/internal/generation"
)

// RetryPolicy decides how often a caller reruns a whole generation after
// it failed validation. Provider errors are never retried here.
type RetryPolicy struct {
	MaxAttempts int
}

// DefaultRetryPolicy reruns a failed generation once.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 2}

// Do calls fn until it succeeds, returns a non-validation error, or the
// attempts are used up. onRetry, when set, is called before each rerun.
func (p RetryPolicy) Do(ctx context.Context, fn func(attempt int) error, onRetry func(attempt int, err error)) error {
	max := p.MaxAttempts
	if max < 1 {
		max = 1
	}

	var err error
	for attempt := 1; attempt <= max; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = fn(attempt)
		var verr *generation.ValidationError
		if err == nil || !errors.As(err, &verr) {
			return err
		}
		if attempt < max && onRetry != nil {
			onRetry(attempt, err)
		}
	}
	return err
}
