package testutils

import (
	"context"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/require"
)

// NewMockClock creates a mock clock for testing
func NewMockClock(t testing.TB) *quartz.Mock {
	return quartz.NewMock(t)
}

// AwaitTimer blocks until some goroutine has armed a timer on the mock clock and
// returns how far away it is.
func AwaitTimer(t testing.TB, mClock *quartz.Mock) time.Duration {
	t.Helper()

	var next time.Duration
	require.Eventually(t, func() bool {
		d, ok := mClock.Peek()
		next = d
		return ok
	}, 5*time.Second, time.Millisecond, "no timer was armed on the mock clock")

	return next
}

// AdvanceToNextTimer waits for a pending timer, fires it and returns the advanced duration
func AdvanceToNextTimer(ctx context.Context, t testing.TB, mClock *quartz.Mock) time.Duration {
	t.Helper()

	d := AwaitTimer(t, mClock)
	mClock.Advance(d).MustWait(ctx)
	return d
}
