// Package backoff provides the delay schedules used between retry rounds.
package backoff

import (
	"context"
	"time"
)

// Iterator returns the delay to wait before the next round each time it is
// called.
type Iterator func() time.Duration

// Constant returns an Iterator that always yields delay.
func Constant(delay time.Duration) Iterator {
	if delay < 0 {
		panic("delay must not be negative")
	}
	return func() time.Duration {
		return delay
	}
}

// Wait pauses for the next delay of it, returning early with the context's
// cause if ctx is done first. A zero delay returns immediately unless ctx is
// already done.
func (it Iterator) Wait(ctx context.Context) error {
	delay := it()
	if delay <= 0 {
		return context.Cause(ctx)
	}
	t := time.NewTimer(delay)
	select {
	case <-ctx.Done():
		t.Stop()
		return context.Cause(ctx)
	case <-t.C:
		return nil
	}
}
