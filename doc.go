/*
Package requeue runs a batch of independent operations concurrently and retries
only the ones that failed.

It is meant for fanning out many calls to an unreliable remote service, where
resubmitting the whole batch after a partial failure would be wasteful. Each
key in the batch is handed to an operation that reports one of three results:
  - [Success] with a value, which is collected and never attempted again.
  - [Retry] with a key, which is queued for the next retry round. The key may
    differ from the one that was attempted.
  - A non-nil error, which is fatal and aborts the whole run.

# Rounds

The initial dispatch starts one goroutine per key without waiting for any of
them. Results are collected in the order they complete. Keys that asked for a
retry are collected into a FIFO queue, and once the round is over the queue is
dispatched again as a new round, all at once. Between rounds the orchestrator
waits for a fixed delay. This continues until one of the following occurs:
  - The queue is empty.
  - [MaxRetries] retry rounds have run. The keys still queued are returned
    alongside the successes. Giving up is not an error.
  - An operation returns an error. Nothing but the error is returned and the
    other operations of the round are abandoned: their context is cancelled
    and their results are discarded.
  - The context passed to [Run] is cancelled.

Concurrency is not bounded. Every key of a round is in flight at the same time.

# Supported Function Types

	|           Function Signature                   |  Method  |
	|------------------------------------------------|----------|
	| func(context.Context, K) (Outcome[T, K], error)| Run      |
	| func(context.Context, K) (T, error)            | RunFn    |

With [RunFn] every error is retryable unless it is wrapped with [Halt] or
matched by [HaltFn] or [HaltErrors].

# Diagnostics

The orchestrator does not log on its own. Use [Logger] to report progress
through a [*slog.Logger], or [Observe] and [Each] to receive [Event] values.
Operations can read the state of the round they run in with [GetStatus].
*/
package requeue
