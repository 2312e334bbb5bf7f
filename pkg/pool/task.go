package pool

import (
	"context"
	"iter"
	"runtime"

	"github.com/jzx17/gofetch/pkg/types"
)

// Task is one unit of asynchronous work run by the pool
type Task[T any] func(ctx context.Context) (T, error)

// FromSlice returns a source that yields tasks in slice order
func FromSlice[T any](tasks []Task[T]) iter.Seq[Task[T]] {
	return func(yield func(Task[T]) bool) {
		for _, task := range tasks {
			if !yield(task) {
				return
			}
		}
	}
}

// executeTask executes a task with panic recovery support
func executeTask[T any](ctx context.Context, task Task[T]) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			// record panic information
			var buf [4096]byte
			n := runtime.Stack(buf[:], false)

			var zero T
			value = zero
			err = types.NewPanicError(r, buf[:n])
		}
	}()

	return task(ctx)
}
