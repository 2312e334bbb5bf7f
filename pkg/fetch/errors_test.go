package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransportCode(t *testing.T) {
	dial := func(errno syscall.Errno) error {
		return &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", errno)}
	}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"connection refused", dial(syscall.ECONNREFUSED), CodeConnRefused},
		{"connection reset", dial(syscall.ECONNRESET), CodeConnReset},
		{"unexpected eof", fmt.Errorf("read body: %w", io.ErrUnexpectedEOF), CodeConnReset},
		{"eof", io.EOF, CodeConnReset},
		{"broken pipe", dial(syscall.EPIPE), CodeBrokenPipe},
		{"host unreachable", dial(syscall.EHOSTUNREACH), CodeHostUnreachable},
		{"access denied", dial(syscall.EACCES), CodeAccessDenied},
		{"dns not found", &net.DNSError{Err: "no such host", Name: "nope.invalid", IsNotFound: true}, CodeDNSNotFound},
		{"dns temporary", &net.DNSError{Err: "server misbehaving", Name: "flaky.example", IsTemporary: true}, CodeDNSTemporary},
		{"dns timeout", &net.DNSError{Err: "i/o timeout", Name: "slow.example", IsTimeout: true}, CodeDNSTemporary},
		{"deadline", fmt.Errorf("attempt: %w", context.DeadlineExceeded), CodeTimeout},
		{"errno timeout", dial(syscall.ETIMEDOUT), CodeTimeout},
		{"unknown", errors.New("tls: handshake failure"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, transportCode(tt.err))
		})
	}
}

func TestIsTransientCode(t *testing.T) {
	for _, code := range []string{CodeConnRefused, CodeConnReset, CodeBrokenPipe, CodeHostUnreachable, CodeDNSTemporary} {
		assert.True(t, IsTransientCode(code), code)
	}
	for _, code := range []string{CodeDNSNotFound, CodeTimeout, CodeAccessDenied, "", "EWHATEVER"} {
		assert.False(t, IsTransientCode(code), code)
	}
}

func TestNewStatusError(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		retryNotFound bool
		want          bool
	}{
		{"500 is retryable", http.StatusInternalServerError, false, true},
		{"599 is retryable", 599, false, true},
		{"404 is terminal by default", http.StatusNotFound, false, false},
		{"404 is retryable when enabled", http.StatusNotFound, true, true},
		{"400 stays terminal", http.StatusBadRequest, true, false},
		{"302 is terminal", http.StatusFound, false, false},
		{"200 transform failure is terminal", http.StatusOK, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newStatusError(&Envelope{StatusCode: tt.status}, tt.retryNotFound, nil)
			assert.Equal(t, tt.want, err.Retryable)
			assert.Empty(t, err.Code)
		})
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		env  *Envelope
		want string
	}{
		{
			name: "status line reason",
			env:  &Envelope{StatusCode: 503, Status: "503 Service Unavailable"},
			want: "503 Service Unavailable",
		},
		{
			name: "custom reason from the server",
			env:  &Envelope{StatusCode: 500, Status: "500 Database On Fire"},
			want: "500 Database On Fire",
		},
		{
			name: "missing status line uses the standard text",
			env:  &Envelope{StatusCode: 404},
			want: "404 Not Found",
		},
		{
			name: "unknown status falls back to the raw body",
			env:  &Envelope{StatusCode: 599, Status: "599", Raw: []byte("oops")},
			want: "599 oops",
		},
		{
			name: "first non-empty error detail wins",
			env: &Envelope{
				StatusCode: 422,
				Body: map[string]any{"errors": []any{
					map[string]any{"detail": "first"},
					"not an object",
					map[string]any{"detail": ""},
					map[string]any{"detail": "second"},
				}},
			},
			want: "first",
		},
		{
			name: "errors without details are ignored",
			env: &Envelope{
				StatusCode: 400,
				Status:     "400 Bad Request",
				Body:       map[string]any{"errors": []any{map[string]any{"code": "E1"}}},
			},
			want: "400 Bad Request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, newStatusError(tt.env, false, nil).Error())
		})
	}
}

func TestErrorAccessors(t *testing.T) {
	cause := errors.New("bad shape")
	env := &Envelope{StatusCode: 200, Status: "200 OK"}
	statusErr := newStatusError(env, false, cause)
	wrapped := fmt.Errorf("upload a.txt: %w", statusErr)

	assert.Equal(t, "200 OK: bad shape", statusErr.Error())
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, 200, StatusCode(wrapped))
	assert.Same(t, env, EnvelopeOf(wrapped))
	assert.Empty(t, CodeOf(wrapped))
	assert.False(t, IsRetryable(wrapped))

	transportErr := newTransportError(&net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)})
	assert.True(t, IsRetryable(transportErr))
	assert.Equal(t, CodeConnRefused, CodeOf(transportErr))
	assert.Zero(t, StatusCode(transportErr))
	assert.Nil(t, EnvelopeOf(transportErr))

	plain := errors.New("plain")
	assert.False(t, IsRetryable(plain))
	assert.Zero(t, StatusCode(plain))
	assert.Empty(t, CodeOf(plain))
}
