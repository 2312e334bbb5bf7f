// Package testutils provides simplified testing utilities and helper functions
package testutils

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// TestConfig test configuration
type TestConfig struct {
	Timeout time.Duration
}

// TestContext simplified test context
type TestContext struct {
	config  *TestConfig
	cleanup []func()
	mu      sync.RWMutex
}

// NewTestContext creates new test context. Cleanup runs automatically when the test ends.
func NewTestContext(t *testing.T, config *TestConfig) *TestContext {
	if config == nil {
		config = &TestConfig{
			Timeout: 5 * time.Second,
		}
	}

	tc := &TestContext{
		config:  config,
		cleanup: make([]func(), 0),
	}
	t.Cleanup(tc.Cleanup)
	return tc
}

// Context returns context with timeout
func (tc *TestContext) Context() context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), tc.config.Timeout)
	tc.AddCleanup(cancel)
	return ctx
}

// AddCleanup adds cleanup function
func (tc *TestContext) AddCleanup(fn func()) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.cleanup = append(tc.cleanup, fn)
}

// Cleanup executes cleanup
func (tc *TestContext) Cleanup() {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	// Execute cleanup functions in reverse order
	for i := len(tc.cleanup) - 1; i >= 0; i-- {
		tc.cleanup[i]()
	}
	tc.cleanup = nil
}

// RoundTripperFunc adapts a function to http.RoundTripper
type RoundTripperFunc func(*http.Request) (*http.Response, error)

// RoundTrip implements http.RoundTripper
func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// ConcurrencyTracker records the current and peak number of concurrent holders
type ConcurrencyTracker struct {
	current atomic.Int64
	peak    atomic.Int64
}

// Enter marks one more holder and returns the function that releases it
func (c *ConcurrencyTracker) Enter() func() {
	n := c.current.Add(1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	return func() { c.current.Add(-1) }
}

// Peak returns the highest number of simultaneous holders observed
func (c *ConcurrencyTracker) Peak() int64 {
	return c.peak.Load()
}
