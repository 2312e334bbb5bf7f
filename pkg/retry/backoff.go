package retry

import (
	"math"
	"math/rand"
	"time"
)

// DefaultMaxDelay caps Exponential when Max is unset
const DefaultMaxDelay = 30 * time.Second

// BackoffStrategy maps a failed attempt (1-based) to the wait before the next one
type BackoffStrategy interface {
	NextDelay(attempt int) time.Duration
}

// BackoffFunc adapts a function to BackoffStrategy
type BackoffFunc func(attempt int) time.Duration

// NextDelay implements BackoffStrategy
func (f BackoffFunc) NextDelay(attempt int) time.Duration {
	return f(attempt)
}

// Constant waits interval after every failed attempt. It is the executor default.
func Constant(interval time.Duration) BackoffStrategy {
	return BackoffFunc(func(int) time.Duration {
		return interval
	})
}

// Exponential grows the wait by Factor per failed attempt, starting at Base and
// never exceeding Max.
type Exponential struct {
	Base time.Duration

	// Factor defaults to 2 when not greater than 1
	Factor float64

	// Max defaults to DefaultMaxDelay when zero
	Max time.Duration
}

// NextDelay implements BackoffStrategy
func (e Exponential) NextDelay(attempt int) time.Duration {
	factor := e.Factor
	if factor <= 1 {
		factor = 2
	}
	ceiling := e.Max
	if ceiling <= 0 {
		ceiling = DefaultMaxDelay
	}
	if attempt < 1 {
		attempt = 1
	}

	d := float64(e.Base) * math.Pow(factor, float64(attempt-1))
	if d > float64(ceiling) || math.IsInf(d, 0) || math.IsNaN(d) {
		return ceiling
	}
	return time.Duration(d)
}

// JitterFunc randomizes a computed delay
type JitterFunc func(time.Duration) time.Duration

// FullJitter picks uniformly from [0, delay)
func FullJitter(delay time.Duration) time.Duration {
	if delay <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(delay)))
}

// EqualJitter keeps half of delay and randomizes the other half
func EqualJitter(delay time.Duration) time.Duration {
	half := delay / 2
	if half <= 0 {
		return delay
	}
	return half + time.Duration(rand.Int63n(int64(half)))
}

// Jittered applies jitter to every delay produced by strategy
func Jittered(strategy BackoffStrategy, jitter JitterFunc) BackoffStrategy {
	if jitter == nil {
		return strategy
	}
	return BackoffFunc(func(attempt int) time.Duration {
		return jitter(strategy.NextDelay(attempt))
	})
}
