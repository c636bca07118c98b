package helpers

import (
	"context"
	"fmt"
	"time"

	"sjsage522/profitsniper/logger"
	sniperrors "sjsage522/profitsniper/pkg/errors"
)

// RetryPolicy holds the parameters for bounded exponential back-off
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Sleep waits between attempts; nil uses a context-aware timer
	Sleep func(ctx context.Context, d time.Duration) error
}

// Do executes fn until it succeeds, returns a non-retryable error, or attempts run out.
// Only network errors are retried.
func (r RetryPolicy) Do(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	attempts := r.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	sleep := r.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	var lastErr error
	delay := r.BaseDelay
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !sniperrors.IsRetryable(lastErr) || attempt == attempts {
			break
		}

		logger.ForComponent("retry").Debug().
			Str("operation", operation).
			Int("attempt", attempt).
			Dur("delay", delay).
			Err(lastErr).
			Msg("retrying")

		if err := sleep(ctx, delay); err != nil {
			return err
		}
		delay *= 2
		if r.MaxDelay > 0 && delay > r.MaxDelay {
			delay = r.MaxDelay
		}
	}

	return fmt.Errorf("%s failed: %w", operation, lastErr)
}

// SleepContext sleeps for d or until ctx is done
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
