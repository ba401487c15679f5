// Package retry provides a bounded retry wrapper with linear backoff for
// network-facing operations.
package retry

import (
	"context"
	"time"
)

// DefaultAttempts is the attempt budget used by message delivery.
const DefaultAttempts = 3

// DefaultBaseDelay is the base backoff delay used by message delivery.
const DefaultBaseDelay = time.Second

// Do runs fn up to attempts times, sleeping baseDelay*(k-1) before attempt
// k (k >= 2). The final attempt's error is returned unchanged so callers
// can branch on its type. Context cancellation aborts the wait and returns
// ctx.Err().
func Do(ctx context.Context, attempts int, baseDelay time.Duration, fn func(context.Context) error) error {
	_, err := DoValue(ctx, attempts, baseDelay, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoValue is Do for operations that produce a value.
func DoValue[T any](ctx context.Context, attempts int, baseDelay time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, baseDelay*time.Duration(attempt-1)); err != nil {
				return zero, err
			}
		}

		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
	}
	return zero, lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
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
