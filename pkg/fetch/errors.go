package fetch

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"syscall"
)

// Transport condition codes attached to errors raised before any response arrived
const (
	CodeConnRefused     = "ECONNREFUSED"
	CodeConnReset       = "ECONNRESET"
	CodeBrokenPipe      = "EPIPE"
	CodeHostUnreachable = "EHOSTUNREACH"
	CodeDNSTemporary    = "EAI_AGAIN"
	CodeDNSNotFound     = "ENOTFOUND"
	CodeTimeout         = "ETIMEDOUT"
	CodeAccessDenied    = "EACCES"
)

// IsTransientCode reports whether a transport condition is worth another attempt
func IsTransientCode(code string) bool {
	switch code {
	case CodeConnRefused, CodeConnReset, CodeBrokenPipe, CodeHostUnreachable, CodeDNSTemporary:
		return true
	default:
		return false
	}
}

// Error is a failed request attempt together with the decision whether to retry it
type Error struct {
	// Message is the human-readable description
	Message string

	// Envelope is the received response, nil when the transport failed
	Envelope *Envelope

	// Code is the transport condition code, empty when a response was received
	Code string

	// Retryable reports whether the failure may succeed on another attempt
	Retryable bool

	// Err is the underlying cause, if any
	Err error
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a retryable *Error
func IsRetryable(err error) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Retryable
}

// StatusCode returns the HTTP status carried by err, or 0 when there is none
func StatusCode(err error) int {
	if env := EnvelopeOf(err); env != nil {
		return env.StatusCode
	}
	return 0
}

// EnvelopeOf returns the response attached to err, if any
func EnvelopeOf(err error) *Envelope {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Envelope
	}
	return nil
}

// CodeOf returns the transport condition code carried by err
func CodeOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}

// newStatusError classifies a received response. cause is set for transform failures.
func newStatusError(env *Envelope, retryNotFound bool, cause error) *Error {
	message := describe(env)
	if cause != nil {
		message += ": " + cause.Error()
	}

	retryable := (retryNotFound && env.StatusCode == http.StatusNotFound) ||
		(env.StatusCode >= 500 && env.StatusCode < 600)

	return &Error{
		Message:   message,
		Envelope:  env,
		Retryable: retryable,
		Err:       cause,
	}
}

// newTransportError classifies a failure that produced no response
func newTransportError(err error) *Error {
	code := transportCode(err)
	return &Error{
		Message:   err.Error(),
		Code:      code,
		Retryable: IsTransientCode(code),
		Err:       err,
	}
}

// transportCode maps a transport failure onto a condition code
func transportCode(err error) string {
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return CodeConnRefused
	case errors.Is(err, syscall.ECONNRESET), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return CodeConnReset
	case errors.Is(err, syscall.EPIPE):
		return CodeBrokenPipe
	case errors.Is(err, syscall.EHOSTUNREACH):
		return CodeHostUnreachable
	case errors.Is(err, syscall.EACCES):
		return CodeAccessDenied
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		switch {
		case dnsErr.IsNotFound:
			return CodeDNSNotFound
		case dnsErr.IsTemporary, dnsErr.IsTimeout:
			return CodeDNSTemporary
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, syscall.ETIMEDOUT) {
		return CodeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CodeTimeout
	}

	return ""
}
