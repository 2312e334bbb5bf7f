package pool

import (
	"context"
	"iter"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/jzx17/gofetch/pkg/types"
)

// Observer receives task lifecycle notifications. Calls may arrive concurrently.
type Observer interface {
	TaskStarted()
	TaskFinished(err error)
}

type nopObserver struct{}

func (nopObserver) TaskStarted()           {}
func (nopObserver) TaskFinished(err error) {}

type options struct {
	observer Observer
}

// Option configures a single Run call
type Option func(*options)

// WithObserver sets the observer notified around every task
func WithObserver(observer Observer) Option {
	return func(o *options) {
		if observer != nil {
			o.observer = observer
		}
	}
}

// Run pulls tasks from the source and keeps at most limit of them running at once.
//
// Results are returned in completion order. The first task error by completion time
// stops further pulls and becomes the return value; tasks already running are left to
// finish with the caller's ctx and their results are discarded. If ctx is done before
// any task fails, pulling stops and ctx.Err() is returned once in-flight tasks drain.
func Run[T any](ctx context.Context, limit int, tasks iter.Seq[Task[T]], opts ...Option) ([]T, error) {
	if limit < 1 {
		return nil, types.ErrInvalidConcurrency
	}

	o := options{observer: nopObserver{}}
	for _, opt := range opts {
		opt(&o)
	}

	next, stop := iter.Pull(tasks)
	defer stop()

	var (
		sem     = semaphore.NewWeighted(int64(limit))
		group   errgroup.Group
		mu      sync.Mutex
		results = make([]T, 0)
		failed  atomic.Bool
		ctxErr  error
	)

	for {
		if err := sem.Acquire(ctx, 1); err != nil {
			ctxErr = err
			break
		}
		if failed.Load() {
			sem.Release(1)
			break
		}
		if err := ctx.Err(); err != nil {
			sem.Release(1)
			ctxErr = err
			break
		}

		task, ok := next()
		if !ok {
			sem.Release(1)
			break
		}

		group.Go(func() error {
			defer sem.Release(1)

			o.observer.TaskStarted()
			value, err := executeTask(ctx, task)
			if err != nil {
				// latch before the slot is released so the loop never pulls past a failure
				failed.Store(true)
				o.observer.TaskFinished(err)
				return err
			}

			mu.Lock()
			results = append(results, value)
			mu.Unlock()

			o.observer.TaskFinished(nil)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	if ctxErr != nil {
		return nil, ctxErr
	}
	return results, nil
}
