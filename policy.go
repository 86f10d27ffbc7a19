package requeue

import (
	"log/slog"
	"time"
)

// Policy allows you to predefine all of the options for a run ahead of time
// and set them using [WithPolicy]
type Policy struct {
	// Number of retry rounds after the initial dispatch. Unlike the
	// [MaxRetries] option, the zero value is used as is: never retry.
	MaxRetries int
	// Fixed pause between retry rounds. The zero value means no pause.
	RetryDelay time.Duration
	// Tag for events and statuses -- see [Label]
	// Default: "requeue"
	Label string
	// Halt identifies fatal errors for [RunFn] -- see [HaltFn]
	Halt func(error) bool
	// Logger reports progress -- see [Logger]
	Logger *slog.Logger
	// Observers receive every event of the run -- see [Observe]
	Observers []Observer
}
