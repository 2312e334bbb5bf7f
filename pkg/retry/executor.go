package retry

import (
	"context"
	"sync"
	"time"

	"github.com/coder/quartz"

	"github.com/jzx17/gofetch/pkg/types"
)

// Config holds the retry budget and the spacing between attempts
type Config struct {
	// Retries is the number of attempts allowed after the first one
	Retries int

	// Interval is the wait between a retryable failure and the next attempt
	Interval time.Duration
}

// DefaultConfig returns the default retry configuration: 5 retries, 50ms apart
func DefaultConfig() Config {
	return Config{
		Retries:  5,
		Interval: 50 * time.Millisecond,
	}
}

// MaxAttempts returns the total number of invocations the config allows
func (c Config) MaxAttempts() int {
	if c.Retries < 0 {
		return 1
	}
	return c.Retries + 1
}

// RetryExecutor runs attempt functions under a Config. It is safe for concurrent use;
// only the statistics are shared between calls.
type RetryExecutor struct {
	config       Config
	backoff      BackoffStrategy
	eventHandler EventHandler
	clock        quartz.Clock

	statsMu sync.Mutex
	stats   RetryStats
}

// AttemptFunc is one attempt of a retried operation. attempt starts at 1.
type AttemptFunc[T any] func(ctx context.Context, attempt int) Outcome[T]

// RetryStats accumulates over every Execute call made through one executor
type RetryStats struct {
	TotalAttempts   int64         // invocations of attempt functions
	TotalRetries    int64         // operations that needed more than one attempt
	TotalSuccesses  int64         // operations that ended with a value
	TotalFailures   int64         // operations that ended with an error
	AverageAttempts float64       // attempts per finished operation
	LastRetryTime   time.Time     // when the last wait started
	TotalRetryDelay time.Duration // sum of all scheduled waits
}

// EventHandler observes the retry loop. Methods are called synchronously from Execute.
type EventHandler interface {
	OnRetryAttempt(ctx context.Context, attempt int, err error)
	OnRetrySuccess(ctx context.Context, attempt int, duration time.Duration)
	OnRetryFailure(ctx context.Context, attempt int, err error)
	OnMaxAttemptsReached(ctx context.Context, attempt int, err error)
}

// NewRetryExecutor creates an executor that waits cfg.Interval between attempts
func NewRetryExecutor(cfg Config, opts ...ExecutorOption) *RetryExecutor {
	executor := &RetryExecutor{
		config:  cfg,
		backoff: Constant(cfg.Interval),
		clock:   quartz.NewReal(),
	}

	for _, opt := range opts {
		opt(executor)
	}

	return executor
}

// Config returns the executor's retry configuration
func (r *RetryExecutor) Config() Config {
	return r.config
}

// Do runs fn under a fresh executor built from cfg
func Do[T any](ctx context.Context, cfg Config, fn AttemptFunc[T], opts ...ExecutorOption) (T, error) {
	return Execute(NewRetryExecutor(cfg, opts...), ctx, fn)
}

// Execute executes fn until it succeeds, fails terminally or exhausts the retry budget.
// On exhaustion the last retryable error is returned as is.
func Execute[T any](r *RetryExecutor, ctx context.Context, fn AttemptFunc[T]) (T, error) {
	var zero T
	var lastErr error
	maxAttempts := r.config.MaxAttempts()

	for attempt := 1; ; attempt++ {
		r.updateStats(func(stats *RetryStats) {
			stats.TotalAttempts++
		})

		if r.eventHandler != nil && attempt > 1 {
			r.eventHandler.OnRetryAttempt(ctx, attempt, lastErr)
		}

		executeStart := r.clock.Now("retry", "attempt")
		outcome := fn(ctx, attempt)
		executeDuration := r.clock.Since(executeStart, "retry", "attempt")

		if outcome.Kind() == OutcomeSuccess {
			r.updateStats(func(stats *RetryStats) {
				stats.TotalSuccesses++
				if attempt > 1 {
					stats.TotalRetries++
				}
				stats.updateAverageAttempts()
			})

			if r.eventHandler != nil && attempt > 1 {
				r.eventHandler.OnRetrySuccess(ctx, attempt, executeDuration)
			}

			return outcome.Value(), nil
		}

		lastErr = outcome.Err()
		if lastErr == nil {
			lastErr = types.ErrNilOutcomeError
		}

		terminal := outcome.Kind() != OutcomeRetryable
		if terminal || attempt >= maxAttempts {
			r.updateStats(func(stats *RetryStats) {
				stats.TotalFailures++
				if attempt > 1 {
					stats.TotalRetries++
				}
				stats.updateAverageAttempts()
			})

			if r.eventHandler != nil {
				if terminal {
					r.eventHandler.OnRetryFailure(ctx, attempt, lastErr)
				} else {
					r.eventHandler.OnMaxAttemptsReached(ctx, attempt, lastErr)
				}
			}

			return zero, lastErr
		}

		delay := r.backoff.NextDelay(attempt)

		r.updateStats(func(stats *RetryStats) {
			stats.LastRetryTime = r.clock.Now("retry", "stats")
			stats.TotalRetryDelay += delay
		})

		if err := r.wait(ctx, delay); err != nil {
			return zero, err
		}
	}
}

// wait blocks for delay on the executor clock, or until ctx is done
func (r *RetryExecutor) wait(ctx context.Context, delay time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if delay <= 0 {
		return nil
	}

	timer := r.clock.NewTimer(delay, "retry", "wait")
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ExecuteAsync executes fn with retry on a new goroutine
func ExecuteAsync[T any](r *RetryExecutor, ctx context.Context, fn AttemptFunc[T]) <-chan types.Result[T] {
	resultChan := make(chan types.Result[T], 1)

	go func() {
		defer close(resultChan)

		start := r.clock.Now("retry", "async")
		value, err := Execute(r, ctx, fn)
		duration := r.clock.Since(start, "retry", "async")

		resultChan <- types.Result[T]{
			Value:    value,
			Error:    err,
			Duration: duration,
		}
	}()

	return resultChan
}

// GetStats returns a snapshot of the accumulated statistics
func (r *RetryExecutor) GetStats() RetryStats {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	return r.stats
}

// ResetStats clears the accumulated statistics
func (r *RetryExecutor) ResetStats() {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	r.stats = RetryStats{}
}

func (r *RetryExecutor) updateStats(fn func(*RetryStats)) {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	fn(&r.stats)
}

func (s *RetryStats) updateAverageAttempts() {
	if finished := s.TotalSuccesses + s.TotalFailures; finished > 0 {
		s.AverageAttempts = float64(s.TotalAttempts) / float64(finished)
	}
}

// ExecutorOption configures a RetryExecutor
type ExecutorOption func(*RetryExecutor)

// WithEventHandler installs handler. Use EventHandlers to install several.
func WithEventHandler(handler EventHandler) ExecutorOption {
	return func(r *RetryExecutor) {
		r.eventHandler = handler
	}
}

// WithBackoff replaces the fixed interval with another backoff strategy
func WithBackoff(backoff BackoffStrategy) ExecutorOption {
	return func(r *RetryExecutor) {
		if backoff != nil {
			r.backoff = backoff
		}
	}
}

// WithClock sets the clock used for waits and durations
func WithClock(clock quartz.Clock) ExecutorOption {
	return func(r *RetryExecutor) {
		if clock != nil {
			r.clock = clock
		}
	}
}
