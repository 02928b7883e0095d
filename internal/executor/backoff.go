package executor

import (
	"context"
	"time"
)

// Backoff maps a retry attempt (1-based) to the delay preceding it.
// Implementations must be monotonically non-decreasing and bounded so the
// worst-case wall clock per operation is finite and computable from config.
type Backoff func(attempt int) time.Duration

// LinearBackoff returns base*attempt capped at max.
func LinearBackoff(base, max time.Duration) Backoff {
	return func(attempt int) time.Duration {
		delay := base * time.Duration(attempt)
		if delay > max {
			return max
		}
		return delay
	}
}

// DefaultBackoff is the retry delay policy used when none is configured:
// 250ms, 500ms, 750ms, ... capped at 2s.
var DefaultBackoff = LinearBackoff(250*time.Millisecond, 2*time.Second)

// sleep waits for d or until ctx is done, whichever comes first.
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
