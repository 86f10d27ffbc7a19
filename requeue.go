package requeue

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"andy.dev/requeue/backoff"
)

const (
	DefaultMaxRetries = 3
	DefaultRetryDelay = 1 * time.Second
	DefaultLabel      = "requeue"
)

// OpFn is an operation that attempts the unit of work identified by key. It is
// called concurrently, once per key and round, and must be safe for that.
//
// The context is cancelled when the run is aborted by another operation of
// the same round. Operations that keep running after that are abandoned and
// their results discarded.
type OpFn[K, T any] func(ctx context.Context, key K) (Outcome[T, K], error)

// Run attempts every key concurrently with fn and retries the keys for which
// fn returns a [Retry] outcome, in rounds, until none are left or the
// [MaxRetries] budget is spent.
//
// It returns the values of all [Success] outcomes in the order they were
// collected, and the keys that were still queued for a retry when the budget
// ran out, in the order they were queued. An empty keys slice returns
// immediately without calling fn.
//
// If fn returns an error, Run returns it right away as an [*AbortError]
// without waiting for the other operations of the round, and no values or
// keys are returned. The same happens if ctx is cancelled, with the error
// being the context's cause.
func Run[K, T any](
	ctx context.Context,
	keys []K,
	fn OpFn[K, T],
	options ...Option,
) ([]T, []K, error) {
	opts := &opts{}
	for _, o := range options {
		o(opts)
	}
	applyDefaults(opts)
	if len(keys) == 0 {
		return []T{}, []K{}, nil
	}
	delay := backoff.Constant(opts.retryDelay)
	status := Status{
		Label:      opts.label,
		MaxRetries: opts.maxRetries,
		Pending:    len(keys),
	}
	successes, queue, err := collect(ctx, keys, fn, status, make([]T, 0, len(keys)), nil)
	if err != nil {
		return nil, nil, errAborted(err, 0, opts.label)
	}

	rounds := 0
	for round := 1; round <= opts.maxRetries; round++ {
		if len(queue) == 0 {
			break
		}
		// the queue is rebuilt from this round's outcomes only.
		batch := queue
		queue = nil
		status = Status{
			Label:      opts.label,
			Round:      round,
			MaxRetries: opts.maxRetries,
			Pending:    len(batch),
			Succeeded:  len(successes),
		}
		if round < opts.maxRetries {
			status.NextDelay = opts.retryDelay
		}
		opts.emit(RoundStarted, status)
		successes, queue, err = collect(ctx, batch, fn, status, successes, queue)
		if err != nil {
			return nil, nil, errAborted(err, round, opts.label)
		}
		rounds = round
		if len(queue) > 0 && round < opts.maxRetries {
			if err := delay.Wait(ctx); err != nil {
				return nil, nil, errAborted(err, round, opts.label)
			}
			continue
		}
		status.Pending = len(queue)
		status.Succeeded = len(successes)
		status.NextDelay = 0
		opts.emit(Completed, status)
	}

	if len(queue) > 0 {
		opts.emit(GaveUp, Status{
			Label:      opts.label,
			Round:      rounds,
			MaxRetries: opts.maxRetries,
			Pending:    len(queue),
			Succeeded:  len(successes),
		})
	}
	return successes, queue, nil
}

// RunFn is [Run] for functions with the signature of:
//
//	func(context.Context, K) (T, error)
//
// A nil error is a success. Any other error retries the same key, unless it
// was wrapped with [Halt] or matched by [HaltFn] or [HaltErrors], in which
// case the run is aborted with it. Context errors returned while ctx is done
// also abort the run; a deadline that only applied to the attempt is retried.
func RunFn[K, T any](
	ctx context.Context,
	keys []K,
	fn func(context.Context, K) (T, error),
	options ...Option,
) ([]T, []K, error) {
	o := &opts{}
	for _, opt := range options {
		opt(o)
	}
	haltFn := o.haltFn
	return Run(ctx, keys, func(ictx context.Context, key K) (Outcome[T, K], error) {
		val, err := fn(ictx, key)
		switch {
		case err == nil:
			return Success[T, K](val), nil
		case Halted(err):
			return Outcome[T, K]{}, err
		case haltFn != nil && haltFn(err):
			return Outcome[T, K]{}, Halt(err)
		case ictx.Err() != nil && isContextErr(err):
			return Outcome[T, K]{}, err
		}
		return Retry[T](key), nil
	}, options...)
}

type result[T, K any] struct {
	outcome Outcome[T, K]
	err     error
}

// collect dispatches one goroutine per key and sorts their outcomes into
// successes and queue as they complete. It returns on the first error.
func collect[K, T any](
	ctx context.Context,
	batch []K,
	fn OpFn[K, T],
	status Status,
	successes []T,
	queue []K,
) ([]T, []K, error) {
	rctx, cancel := context.WithCancelCause(withStatus(ctx, status))
	defer cancel(nil)
	// buffered so that abandoned operations never block on send.
	results := make(chan result[T, K], len(batch))
	for _, key := range batch {
		go attempt(rctx, fn, key, results)
	}
	for range len(batch) {
		select {
		case r := <-results:
			if r.err != nil {
				cancel(r.err)
				return nil, nil, r.err
			}
			if r.outcome.IsRetry() {
				queue = append(queue, r.outcome.Key())
			} else {
				successes = append(successes, r.outcome.Value())
			}
		case <-ctx.Done():
			return nil, nil, context.Cause(ctx)
		}
	}
	return successes, queue, nil
}

func attempt[K, T any](ctx context.Context, fn OpFn[K, T], key K, results chan<- result[T, K]) {
	var r result[T, K]
	defer func() {
		if p := recover(); p != nil {
			r = result[T, K]{err: &PanicError{Value: p, Stack: debug.Stack()}}
		}
		results <- r
	}()
	r.outcome, r.err = fn(ctx, key)
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
