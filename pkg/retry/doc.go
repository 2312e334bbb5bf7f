// Package retry provides a bounded retry engine driven by attempt outcomes.
//
// Each attempt reports an Outcome: Success ends the loop with a value, Terminal ends it
// with an error, and Retryable asks for another attempt. The engine allows at most
// Config.Retries+1 invocations and waits Config.Interval between them unless another
// BackoffStrategy is installed.
//
// Basic usage example:
//
//	executor := retry.NewRetryExecutor(retry.DefaultConfig())
//
//	body, err := retry.Execute(executor, ctx, func(ctx context.Context, attempt int) retry.Outcome[string] {
//		body, err := fetchOnce(ctx)
//		switch {
//		case err == nil:
//			return retry.Success(body)
//		case isTransient(err):
//			return retry.Retryable[string](err)
//		default:
//			return retry.Terminal[string](err)
//		}
//	})
//
// When the budget runs out the last retryable error is returned unchanged, so callers
// can inspect it with errors.As.
//
// Exponential backoff with jitter:
//
//	executor := retry.NewRetryExecutor(cfg,
//		retry.WithBackoff(retry.Jittered(
//			retry.Exponential{Base: 100 * time.Millisecond, Max: 5 * time.Second},
//			retry.FullJitter)))
//
// Event handling:
//
//	executor := retry.NewRetryExecutor(cfg,
//		retry.WithEventHandler(retry.NewLogEventHandler(logger)))
//
// Waits run on a quartz.Clock. Production code uses the real clock; tests pass
// quartz.NewMock(t) through WithClock to step through intervals deterministically.
//
// Thread safety:
//
// A RetryExecutor may be shared by concurrent callers. Each Execute call keeps its own
// attempt counter and only the statistics are shared.
package retry
