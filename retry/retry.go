package retry

import (
	"context"
	"time"
)

// Schedule maps a 1-based attempt number to the delay taken after that
// attempt fails.
type Schedule func(attempt int) time.Duration

// Linear waits base, 2×base, 3×base, ...
func Linear(base time.Duration) Schedule {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * base
	}
}

// Exponential waits base, 2×base, 4×base, ...
func Exponential(base time.Duration) Schedule {
	return func(attempt int) time.Duration {
		return base << (attempt - 1)
	}
}

// Always retries every error.
func Always(error) bool { return true }

// Do runs fn up to maxAttempts times, sleeping per schedule between
// attempts. Only errors accepted by retryable are retried; other errors
// and context cancellation return immediately.
func Do[T any](ctx context.Context, maxAttempts int, schedule Schedule, retryable func(error) bool, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !retryable(err) {
			return zero, err
		}

		if attempt < maxAttempts {
			select {
			case <-time.After(schedule(attempt)):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}
	}
	return zero, lastErr
}
