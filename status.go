package requeue

import (
	"context"
	"fmt"
	"time"
)

type statusCtxKeyT string

const (
	statusCtxKey statusCtxKeyT = "requeue"
)

// GetStatus can be used to retrieve information about the current round from
// within an operation, as opposed to watching events with [Observe].
// It will return Status{} if not called from an operation started by [Run] or
// [RunFn].
func GetStatus(ctx context.Context) Status {
	status, ok := ctx.Value(statusCtxKey).(Status)
	if !ok {
		return Status{}
	}
	return status
}

// Status represents the state of a run at a given round.
type Status struct {
	// Label given with the [Label] option.
	Label string
	// Round is 0 for the initial dispatch and counts retry rounds from 1.
	Round int
	// MaxRetries is the configured number of retry rounds.
	MaxRetries int
	// Pending is the number of keys dispatched in the round, or still queued
	// when the run gives up.
	Pending int
	// Succeeded is the number of successes collected so far: before the round
	// for RoundStarted and inside operations, after the last round for
	// Completed and GaveUp.
	Succeeded int
	// NextDelay is the pause that will follow the round if keys remain queued.
	NextDelay time.Duration
}

// String implements fmt.Stringer
func (s Status) String() string {
	if s.Round == 0 {
		return "initial dispatch"
	}
	return fmt.Sprintf("retry %d/%d", s.Round, s.MaxRetries)
}

// Format implements fmt.Formatter it supports the %s, %v and %q print verbs. Output
// is flag-dependent:
//
//	%s -  "retry #/#"
//	%+s - "retry #/# - N pending, next in <duration>"
//
// Where '#' is the round number starting from '1' followed by the maximum
// number of retry rounds. The initial dispatch is printed as
// "initial dispatch".
func (s Status) Format(state fmt.State, verb rune) {
	switch verb {
	case 's', 'q', 'v':
		str := s.String()
		if state.Flag('+') {
			str = fmt.Sprintf("%s - %d pending", str, s.Pending)
			if s.Round > 0 && s.Round < s.MaxRetries {
				str = fmt.Sprintf("%s, next in %v", str, shortNext(s.NextDelay))
			}
		}
		if verb == 'q' {
			str = fmt.Sprintf("%q", str)
		}
		fmt.Fprint(state, str)
	}
}

// Next returns a time.Time value representing the approximate time the next
// round will start, assuming the current one has just been collected.
func (s Status) Next() time.Time {
	return time.Now().Add(s.NextDelay)
}

func shortNext(d time.Duration) time.Duration {
	if d < time.Second {
		return d.Round(time.Millisecond)
	}
	return d.Round(time.Second)
}

func withStatus(ctx context.Context, s Status) context.Context {
	return context.WithValue(ctx, statusCtxKey, s)
}
