package apierr

import (
	"context"
	"fmt"
	"time"
)

// RetryConfig tunes the backoff loop for one remote call site. Each
// adapter (blob storage, recordings backend, speech API) carries its own
// config since their latency profiles differ: blob PUTs move megabytes,
// row updates are small and frequent, speech calls are slow but rare.
//
// Out-of-range values are normalized before use:
//   - MaxRetries < 0 becomes 0, meaning a single attempt
//   - BaseDelay <= 0 becomes 1ms
//   - MaxDelay <= 0 becomes BaseDelay
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// normalize clamps out-of-range fields to usable values.
func (c *RetryConfig) normalize() {
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = c.BaseDelay
	}
}

// delayFor returns the wait before the given retry (1-based), doubling
// from BaseDelay and capped at MaxDelay.
func (c *RetryConfig) delayFor(retry int) time.Duration {
	d := c.BaseDelay
	for i := 1; i < retry; i++ {
		d *= 2
		if d >= c.MaxDelay {
			return c.MaxDelay
		}
	}
	return min(d, c.MaxDelay)
}

// RetryWithBackoff runs fn until it succeeds, shouldRetry rejects the
// error, or the retry budget is spent. Callers pass IsRetryable as
// shouldRetry so only transient failures (rate limits, timeouts, 5xx)
// burn budget; permanent ones surface immediately.
//
// Cancelling ctx during a backoff wait aborts with ctx.Err(). fn is
// responsible for honoring ctx within an attempt.
func RetryWithBackoff[T any](
	ctx context.Context,
	cfg RetryConfig,
	fn func() (T, error),
	shouldRetry func(error) bool,
) (T, error) {
	cfg.normalize()

	var zero T
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := wait(ctx, cfg.delayFor(attempt)); err != nil {
				return zero, err
			}
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}

		lastErr = err
		if !shouldRetry(lastErr) {
			return zero, lastErr
		}
	}

	return zero, fmt.Errorf("max retries (%d) exceeded: %w", cfg.MaxRetries, lastErr)
}

// wait sleeps for d or until ctx is done, whichever comes first.
func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		if !timer.Stop() {
			<-timer.C
		}
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
