package resilience

import (
	"context"
	"fmt"
	"time"

	crerr "github.com/cockroachdb/errors"
)

var ErrRetriesExhausted = crerr.New("retries exhausted")

// Retrier runs an operation up to Retries+1 times while Retryable reports the
// error as recoverable. OnRetry runs between attempts, before the backoff.
type Retrier struct {
	Retries   int
	Backoff   func(attempt int) time.Duration
	Retryable func(error) bool
	OnRetry   func(ctx context.Context, attempt int, err error)
}

// LinearBackoff waits step*(attempt+1).
func LinearBackoff(step time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return time.Duration(attempt+1) * step
	}
}

// Do returns nil on success, the error unchanged when it is not retryable,
// and the last error wrapped together with ErrRetriesExhausted otherwise.
func (r Retrier) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	retries := r.Retries
	if retries < 0 {
		retries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return nil
		}
		if r.Retryable != nil && !r.Retryable(lastErr) {
			return lastErr
		}
		if attempt == retries {
			break
		}
		if r.OnRetry != nil {
			r.OnRetry(ctx, attempt, lastErr)
		}
		if err := sleepContext(ctx, r.backoff(attempt)); err != nil {
			return err
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, retries+1, lastErr)
}

func (r Retrier) backoff(attempt int) time.Duration {
	if r.Backoff == nil {
		return 0
	}
	return r.Backoff(attempt)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
