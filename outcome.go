package requeue

import "fmt"

// Outcome is the result of a single attempt: either a value or a key to retry
// with. Create one with [Success] or [Retry].
type Outcome[T, K any] struct {
	value T
	key   K
	retry bool
}

// Success reports a completed attempt. The key that produced it will not be
// attempted again.
func Success[T, K any](value T) Outcome[T, K] {
	return Outcome[T, K]{value: value}
}

// Retry reports an attempt that should be made again in the next round with
// key, which does not need to be the key that was just attempted.
func Retry[T, K any](key K) Outcome[T, K] {
	return Outcome[T, K]{key: key, retry: true}
}

// IsRetry returns true if the outcome was created with [Retry].
func (o Outcome[T, K]) IsRetry() bool {
	return o.retry
}

// Value returns the value of a [Success] outcome, or the zero value.
func (o Outcome[T, K]) Value() T {
	return o.value
}

// Key returns the key of a [Retry] outcome, or the zero value.
func (o Outcome[T, K]) Key() K {
	return o.key
}

// String implements fmt.Stringer
func (o Outcome[T, K]) String() string {
	if o.retry {
		return fmt.Sprintf("retry(%v)", o.key)
	}
	return fmt.Sprintf("success(%v)", o.value)
}
