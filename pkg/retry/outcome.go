package retry

import "fmt"

// OutcomeKind describes what an attempt decided about itself. The zero value is not a
// valid kind; the engine treats it as a terminal failure.
type OutcomeKind int

const (
	// OutcomeSuccess ends the retry loop with a value
	OutcomeSuccess OutcomeKind = iota + 1
	// OutcomeRetryable asks for another attempt if budget remains
	OutcomeRetryable
	// OutcomeTerminal ends the retry loop with an error immediately
	OutcomeTerminal
)

// String returns the string representation of OutcomeKind
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetryable:
		return "retryable"
	case OutcomeTerminal:
		return "terminal"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// Outcome is the tagged result of a single attempt.
// The attempt itself decides whether its failure is worth retrying.
type Outcome[T any] struct {
	kind  OutcomeKind
	value T
	err   error
}

// Success creates a successful outcome carrying v
func Success[T any](v T) Outcome[T] {
	return Outcome[T]{kind: OutcomeSuccess, value: v}
}

// Retryable creates an outcome that requests another attempt
func Retryable[T any](err error) Outcome[T] {
	return Outcome[T]{kind: OutcomeRetryable, err: err}
}

// Terminal creates an outcome that fails without further attempts
func Terminal[T any](err error) Outcome[T] {
	return Outcome[T]{kind: OutcomeTerminal, err: err}
}

// Kind returns the outcome kind
func (o Outcome[T]) Kind() OutcomeKind {
	return o.kind
}

// Value returns the success value (zero for failures)
func (o Outcome[T]) Value() T {
	return o.value
}

// Err returns the failure error (nil for success)
func (o Outcome[T]) Err() error {
	return o.err
}
