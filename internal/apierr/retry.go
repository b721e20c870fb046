package apierr

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryConfig holds retry parameters for exponential backoff.
//
// Invalid values are normalized:
//   - MaxRetries < 0 becomes 0 (single attempt)
//   - BaseDelay <= 0 becomes 1ms
//   - MaxDelay <= 0 becomes BaseDelay
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

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

// policy builds the backoff schedule for cfg. Jitter is disabled so delays
// stay predictable for the pacing limiter that sits in front of every call.
func (c RetryConfig) policy(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.BaseDelay
	eb.MaxInterval = c.MaxDelay
	eb.Multiplier = 2
	eb.RandomizationFactor = 0
	eb.MaxElapsedTime = 0
	eb.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(c.MaxRetries)), ctx)
}

// RetryWithBackoff executes fn with exponential backoff retry.
// It retries only while shouldRetry returns true for the error.
// When the retry budget runs out the last error is wrapped, so errors.Is and
// errors.As still reach it.
func RetryWithBackoff[T any](
	ctx context.Context,
	cfg RetryConfig,
	fn func() (T, error),
	shouldRetry func(error) bool,
) (T, error) {
	cfg.normalize()

	var (
		result   T
		attempts int
	)
	op := func() error {
		attempts++
		r, err := fn()
		if err != nil {
			if !shouldRetry(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		result = r
		return nil
	}

	err := backoff.Retry(op, cfg.policy(ctx))
	if err == nil {
		return result, nil
	}

	var zero T
	if ctxErr := ctx.Err(); ctxErr != nil {
		return zero, ctxErr
	}
	if attempts > cfg.MaxRetries && shouldRetry(err) {
		return zero, fmt.Errorf("max retries (%d) exceeded: %w", cfg.MaxRetries, err)
	}
	return zero, err
}
