package common

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ForEach runs fn for every item on a pool of workers consuming a job queue.
// Each call owns slot i, so fn may write results[i] without locking.
// Failures are the callee's business; ForEach never stops early.
func ForEach[T any](items []T, workers int, fn func(i int, item T)) {
	if len(items) == 0 {
		return
	}
	numWorkers := OptimalWorkerCount(workers, len(items))

	jobs := make(chan int, len(items))
	for i := range items {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				fn(i, items[i])
			}
		}()
	}
	wg.Wait()
}

// Map applies fn to every item with at most workers calls in flight and
// returns the results in input order. The first error cancels the context
// handed to the remaining calls and is returned.
func Map[T, R any](ctx context.Context, items []T, workers int, fn func(ctx context.Context, item T) (R, error)) ([]R, error) {
	out := make([]R, len(items))
	if len(items) == 0 {
		return out, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(OptimalWorkerCount(workers, len(items)))

	for i, item := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := fn(ctx, item)
			if err != nil {
				return err
			}
			out[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
