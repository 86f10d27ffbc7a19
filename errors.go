package requeue

import (
	"errors"
	"fmt"
)

// AbortError is returned by [Run] and [RunFn] when an operation fails fatally
// or the run's context is cancelled. Round is the round in which it happened,
// 0 being the initial dispatch.
// Its message is the message of the underlying error, which can be inspected
// with [errors.Is] and [errors.As].
type AbortError struct {
	Round int
	Label string
	err   error
}

// Error implements the error interface.
func (ae *AbortError) Error() string {
	return ae.err.Error()
}

// Unwrap allows an *AbortError to work with [errors.Is] and [errors.As]
func (ae *AbortError) Unwrap() error {
	return ae.err
}

// Aborted returns true if the error ended a run early.
func Aborted(e error) bool {
	var ae *AbortError
	return errors.As(e, &ae)
}

func errAborted(e error, round int, label string) *AbortError {
	return &AbortError{Round: round, Label: label, err: e}
}

type haltErr struct {
	err error
}

func (he *haltErr) Error() string {
	return he.err.Error()
}

func (he *haltErr) Unwrap() error {
	return he.err
}

// Halted returns true if the error was marked as fatal with [Halt].
func Halted(e error) bool {
	var he *haltErr
	return errors.As(e, &he)
}

// Halt allows you to return a fatal error from a function passed to [RunFn],
// as an alternative to using [HaltFn]. Simply:
//
//	return requeue.Halt(err)
//
// To abort the run immediately instead of retrying the key.
func Halt(e error) error {
	if e == nil {
		return nil
	}
	return &haltErr{e}
}

// PanicError is the fatal error produced when an operation panics. The panic
// is recovered in the operation's goroutine so that it aborts the run instead
// of the process.
type PanicError struct {
	Value any
	Stack []byte
}

// Error implements the error interface.
func (pe *PanicError) Error() string {
	return fmt.Sprintf("requeue: operation panicked: %v", pe.Value)
}

// Unwrap returns the panic value if it is an error.
func (pe *PanicError) Unwrap() error {
	err, _ := pe.Value.(error)
	return err
}
