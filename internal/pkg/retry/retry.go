// Package retry provides a reusable bounded-attempt retry mechanism.
//
// Unlike a plain backoff loop, the attempt index is passed to the work
// function so callers can vary strategy per attempt (e.g. route the first
// attempt through a proxy and fall back to a direct connection).
package retry

import (
	"context"
	"fmt"
	"time"
)

// Config holds configuration for retry behavior.
type Config struct {
	// MaxRetries is the maximum number of retry attempts (0 means no
	// retries, just the initial attempt).
	MaxRetries int

	// Backoff is the fixed delay between attempts. Zero means retry
	// immediately.
	Backoff time.Duration
}

// IsRetryableFunc determines if an error should trigger a retry.
type IsRetryableFunc func(error) bool

// OnRetryFunc is called before each retry attempt (optional, for
// logging/metrics). attempt is 1-indexed: the first retry is attempt 1.
type OnRetryFunc func(attempt int, err error)

// Do executes fn with retry logic. fn receives the 0-indexed attempt number.
// It returns fn's result, or the last error once retries are exhausted.
func Do[T any](
	ctx context.Context,
	cfg Config,
	isRetryable IsRetryableFunc,
	onRetry OnRetryFunc,
	fn func(attempt int) (T, error),
) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if onRetry != nil {
				onRetry(attempt, lastErr)
			}
			if cfg.Backoff > 0 {
				select {
				case <-ctx.Done():
					return zero, fmt.Errorf("context cancelled while retrying: %w", ctx.Err())
				case <-time.After(cfg.Backoff):
				}
			}
		}

		result, err := fn(attempt)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if isRetryable != nil && !isRetryable(err) {
			return zero, err
		}
	}

	return zero, fmt.Errorf("operation failed after %d attempts: %w", cfg.MaxRetries+1, lastErr)
}
