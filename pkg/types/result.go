// Package types defines the result and error types shared by the pool, retry and fetch packages
package types

import "time"

// Result defines the result of asynchronous execution
type Result[R any] struct {
	// Value is the execution result
	Value R

	// Error is the execution error
	Error error

	// Duration is the execution time
	Duration time.Duration
}

// Ok reports whether the result carries no error
func (r Result[R]) Ok() bool {
	return r.Error == nil
}

// Unwrap returns the value and error as a pair
func (r Result[R]) Unwrap() (R, error) {
	return r.Value, r.Error
}
