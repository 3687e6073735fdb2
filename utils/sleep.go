package utils

import (
	"context"
	"time"
)

// Waits for duration on the clock. Returns false if the context was
// cancelled first.
func SleepWithCtx(ctx context.Context, clock Clock,
	duration time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}

	select {
	case <-ctx.Done():
		return false
	case <-clock.After(duration):
		return true
	}
}
