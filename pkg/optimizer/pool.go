package optimizer

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Pool is the optimizer's bounded worker pool, built on golang.org/x/sync's
// structured concurrency primitives rather than a hand-rolled
// sync.WaitGroup/channel fan-out, giving every solve cooperative
// cancellation instead of implicit coroutine-style concurrency.
type Pool struct {
	size int64
}

func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{size: int64(workers)}
}

// Map applies fn to every item with at most p.size concurrent in flight,
// preserving input order in the result slice, and stopping early on the
// first error or ctx cancellation.
func Map[T any, R any](ctx context.Context, p *Pool, items []T, fn func(context.Context, T) (R, error)) ([]R, error) {
	results := make([]R, len(items))
	sem := semaphore.NewWeighted(p.size)
	g, gctx := errgroup.WithContext(ctx)

	for i, item := range items {
		i, item := i, item
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			r, err := fn(gctx, item)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
