package fetcher

import (
	"context"
	"time"
)

// BackoffPolicy maps a zero-based retry attempt to a wait duration.
// Kept separate from the retry loop so it can be tested without real
// time delays.
type BackoffPolicy func(attempt int) time.Duration

// ExponentialBackoff returns base * 2^attempt.
func ExponentialBackoff(base time.Duration) BackoffPolicy {
	return func(attempt int) time.Duration {
		return base << uint(attempt)
	}
}

// SleepFunc pauses for d or until ctx is done, whichever is earlier.
// Tests inject an instant variant.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
