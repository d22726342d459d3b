// Package errors defines the core's non-diagnostic error values: conditions
// that abort a call rather than being recorded and carried downstream (see
// spec.md §7). Source-level problems are diag.Diagnostic values, not errors
// from this package.
package errors

import (
	"fmt"
	"time"
)

// Kind classifies an Error.
type Kind string

const (
	KindInvariant Kind = "invariant" // a precondition documented in spec.md was violated
	KindWorker    Kind = "worker"    // a task submitted to the executor panicked
	KindIO        Kind = "io"        // an include or export file operation failed
	KindConfig    Kind = "config"    // DbOptions or a config file was invalid
)

// Error is the core's uniform error type. Operation names the method that
// raised it (e.g. "name_result", "FormulaBuilder.Build") so a caller can
// tell programmer errors apart without parsing the message.
type Error struct {
	Kind       Kind
	Operation  string
	Underlying error
	Timestamp  time.Time
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Operation: op, Underlying: err, Timestamp: time.Now()}
}

// Invariant reports a programmer error: a precondition spec.md documents
// (e.g. "calling name_result before name_pass") was not met. Callers that
// hit this should fix their call sequence, not retry.
func Invariant(op, format string, args ...interface{}) *Error {
	return newError(KindInvariant, op, fmt.Errorf(format, args...))
}

// Worker wraps a value recovered from a panicking task in a KindWorker
// Error. The executor does not call it: Promise.Wait re-panics the raw
// recovered value on the waiting goroutine.
func Worker(op string, recovered interface{}) *Error {
	err, ok := recovered.(error)
	if !ok {
		err = fmt.Errorf("%v", recovered)
	}
	return newError(KindWorker, op, err)
}

// IO wraps a failed include-resolution or export file operation.
func IO(op string, err error) *Error {
	return newError(KindIO, op, err)
}

// Config wraps an invalid DbOptions or config-file value.
func Config(op string, err error) *Error {
	return newError(KindConfig, op, err)
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.Kind, e.Operation, e.Underlying)
}

func (e *Error) Unwrap() error {
	return e.Underlying
}
