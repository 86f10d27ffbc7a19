package requeue

import (
	"context"
	"log/slog"
)

// EventKind identifies the progress signal carried by an [Event].
type EventKind int

const (
	// RoundStarted is emitted before a retry round is dispatched. Status.Pending
	// is the number of keys in the round.
	RoundStarted EventKind = iota + 1
	// Completed is emitted once the retry loop ends, either because the queue
	// drained or because the last round ran. Status.Round is the number of
	// rounds used and Status.Pending the number of keys still queued.
	Completed
	// GaveUp is emitted when keys are still queued after the last round.
	// Status.Pending is the number of keys returned as pending.
	GaveUp
)

// String implements fmt.Stringer
func (k EventKind) String() string {
	switch k {
	case RoundStarted:
		return "round started"
	case Completed:
		return "completed"
	case GaveUp:
		return "gave up"
	default:
		return "unknown"
	}
}

// Event is a progress signal emitted by a run.
type Event struct {
	Kind   EventKind
	Status Status
}

// String implements fmt.Stringer
func (e Event) String() string {
	return e.Kind.String() + ": " + e.Status.String()
}

// Observer receives the events of a run. Observers are called synchronously
// from the goroutine that called [Run], never concurrently, and must not
// block.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to the [Observer] interface.
type ObserverFunc func(Event)

// Observe calls f(e).
func (f ObserverFunc) Observe(e Event) {
	f(e)
}

// SlogObserver returns an [Observer] that logs events to logger: round starts
// and give-ups at WARN, completions at INFO. If logger is nil, slog.Default()
// is used.
func SlogObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &slogObserver{logger: logger}
}

type slogObserver struct {
	logger *slog.Logger
}

func (so *slogObserver) Observe(ev Event) {
	ctx := context.Background()
	e := ev.Status
	switch ev.Kind {
	case RoundStarted:
		so.logger.LogAttrs(ctx, slog.LevelWarn, "retrying failed keys",
			slog.String("label", e.Label),
			slog.Int("pending", e.Pending),
			slog.Int("round", e.Round),
			slog.Int("max_retries", e.MaxRetries),
		)
	case Completed:
		so.logger.LogAttrs(ctx, slog.LevelInfo, "retry rounds completed",
			slog.String("label", e.Label),
			slog.Int("rounds", e.Round),
			slog.Int("max_retries", e.MaxRetries),
			slog.Int("pending", e.Pending),
		)
	case GaveUp:
		so.logger.LogAttrs(ctx, slog.LevelWarn, "keys still failing after retries",
			slog.String("label", e.Label),
			slog.Int("pending", e.Pending),
			slog.Int("rounds", e.Round),
			slog.Int("max_retries", e.MaxRetries),
		)
	}
}
