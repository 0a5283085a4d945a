package pipeline

import (
	"context"
	"time"
)

// Retry delays for a failing stage: 200ms doubling to 5s.
const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// backoff tracks the delay before the next retry. It is shared by every stage
// of a pipeline run and reset whenever a stage makes progress.
type backoff struct {
	delay time.Duration
}

func newBackoff() *backoff {
	return &backoff{delay: initialBackoff}
}

// wait sleeps for the current delay and then doubles it. It returns false if
// ctx ends first.
func (b *backoff) wait(ctx context.Context) bool {
	if !sleepWithContext(ctx, b.delay) {
		return false
	}
	b.delay = nextBackoff(b.delay, maxBackoff)
	return true
}

func (b *backoff) reset() {
	b.delay = initialBackoff
}

func nextBackoff(current, limit time.Duration) time.Duration {
	next := current * 2
	if next > limit {
		return limit
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
