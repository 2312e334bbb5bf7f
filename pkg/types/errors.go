package types

import (
	"errors"
	"fmt"
)

// Predefined errors
var (
	// ErrInvalidURL indicates the request target could not be parsed into scheme and host
	ErrInvalidURL = errors.New("invalid request url")

	// ErrInvalidConcurrency indicates a concurrency ceiling below one
	ErrInvalidConcurrency = errors.New("concurrency limit must be at least 1")

	// ErrTaskPanic indicates a task panicked while running
	ErrTaskPanic = errors.New("task panicked")

	// ErrNilOutcomeError indicates an attempt reported failure without an error value
	ErrNilOutcomeError = errors.New("attempt failed without an error")
)

// PanicError carries a recovered panic value together with the stack at the point of recovery
type PanicError struct {
	// Value is whatever was passed to panic
	Value interface{}

	// Stack is the goroutine stack captured during recovery
	Stack []byte
}

// Error implements the error interface
func (e *PanicError) Error() string {
	return fmt.Sprintf("%v: %v", ErrTaskPanic, e.Value)
}

// Unwrap returns ErrTaskPanic, or the panic value when it is itself an error
func (e *PanicError) Unwrap() []error {
	if err, ok := e.Value.(error); ok {
		return []error{ErrTaskPanic, err}
	}
	return []error{ErrTaskPanic}
}

// NewPanicError creates a PanicError from a recovered value
func NewPanicError(value interface{}, stack []byte) *PanicError {
	return &PanicError{
		Value: value,
		Stack: stack,
	}
}
