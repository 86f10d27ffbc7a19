package requeue

import (
	"errors"
	"log/slog"
	"time"
)

// Option represents an optional run setting.
type Option func(o *opts)

// WithPolicy applies the settings in a [Policy] to a run, allowing you to
// reuse a set of options for multiple batches. MaxRetries and RetryDelay are
// always taken from the policy and replace options given before it. An empty
// Label, a nil Halt or a nil Logger leave earlier options in place. Options
// given after it override the policy.
func WithPolicy(p Policy) Option {
	return func(o *opts) {
		MaxRetries(p.MaxRetries)(o)
		RetryDelay(p.RetryDelay)(o)
		if p.Label != "" {
			o.label = p.Label
		}
		if p.Halt != nil {
			o.haltFn = p.Halt
		}
		if p.Logger != nil {
			Logger(p.Logger)(o)
		}
		for _, obs := range p.Observers {
			Observe(obs)(o)
		}
	}
}

// MaxRetries is the number of retry rounds to run after the initial dispatch.
// 0 means every key is attempted exactly once. Negative values are treated as
// 0. If unset, it will default to DefaultMaxRetries (3).
func MaxRetries(rounds int) Option {
	return func(o *opts) {
		o.maxRetries = max(rounds, 0)
		o.maxRetriesSet = true
	}
}

// RetryDelay sets the fixed pause between two consecutive retry rounds. The
// first retry round starts as soon as the initial dispatch is collected, and
// there is no pause after the last round. Negative values are treated as 0.
// If unset, it will default to DefaultRetryDelay (1 * time.Second).
func RetryDelay(delay time.Duration) Option {
	return func(o *opts) {
		o.retryDelay = max(delay, 0)
		o.retryDelaySet = true
	}
}

// Label tags every [Event] and [Status] of the run. It has no effect on
// behavior. Defaults to DefaultLabel ("requeue").
func Label(label string) Option {
	return func(o *opts) {
		o.label = label
	}
}

// Observe adds an [Observer] to the run. It may be given more than once.
func Observe(obs Observer) Option {
	return func(o *opts) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// Each allows you to set a function to be called for every [Event] of the
// run. It is a shortcut for Observe(ObserverFunc(eachFn)).
func Each(eachFn func(Event)) Option {
	if eachFn == nil {
		return func(*opts) {}
	}
	return Observe(ObserverFunc(eachFn))
}

// Logger reports the progress of the run to logger, see [SlogObserver].
func Logger(logger *slog.Logger) Option {
	return Observe(SlogObserver(logger))
}

// HaltFn allows you to set a function to use for identifying fatal errors in
// [RunFn]. It will be called for each error returned from the target function.
// If it returns true, the run is aborted with that error instead of retrying
// the key. Defaults to nil. It has no effect on [Run], where every error is
// fatal.
func HaltFn(haltFn func(error) bool) Option {
	return func(o *opts) {
		o.haltFn = haltFn
	}
}

// HaltErrors is a shortcut to writing a [HaltFn] of the form
//
//	func(e error) bool {
//	    return errors.Is(e, Err1) || errors.Is(e, Err2) /* ... */
//	}
func HaltErrors(errs ...error) Option {
	return func(o *opts) {
		o.haltFn = func(e error) bool {
			for i := range errs {
				if errors.Is(e, errs[i]) {
					return true
				}
			}
			return false
		}
	}
}

func applyDefaults(ro *opts) {
	if !ro.maxRetriesSet {
		ro.maxRetries = DefaultMaxRetries
	}
	if !ro.retryDelaySet {
		ro.retryDelay = DefaultRetryDelay
	}
	if ro.label == "" {
		ro.label = DefaultLabel
	}
}

type opts struct {
	maxRetries    int
	maxRetriesSet bool
	retryDelay    time.Duration
	retryDelaySet bool
	label         string
	observers     []Observer
	haltFn        func(error) bool
}

func (o *opts) emit(kind EventKind, status Status) {
	for _, obs := range o.observers {
		obs.Observe(Event{Kind: kind, Status: status})
	}
}
