// Package pool provides a bounded concurrency pool over a lazy source of tasks.
//
// Run pulls tasks from an iter.Seq one at a time and never has more than the given
// limit in flight. A task is only pulled when a slot is free, so an unbounded source is
// fine as long as the caller eventually stops it or a task fails.
//
// Basic usage example:
//
//	tasks := func(yield func(pool.Task[string]) bool) {
//		for _, u := range urls {
//			if !yield(func(ctx context.Context) (string, error) { return get(ctx, u) }) {
//				return
//			}
//		}
//	}
//
//	bodies, err := pool.Run(ctx, 4, tasks)
//
// Failure semantics:
//
//   - The first error by completion time wins and is returned as is
//   - No task is pulled after the first error is observed
//   - Tasks already running are never cancelled by the pool; Run waits for them
//   - A panicking task fails with an error matching types.ErrTaskPanic
//
// Results arrive in completion order, not source order.
package pool
