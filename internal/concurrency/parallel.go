package concurrency

import (
	"context"
	"sync"
)

// ParallelOptions configures a worker pool run.
type ParallelOptions struct {
	// MaxWorkers caps the number of goroutines working at once.
	MaxWorkers int
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() ParallelOptions {
	return ParallelOptions{
		MaxWorkers: 10,
	}
}

func (o ParallelOptions) workers(n int) int {
	w := o.MaxWorkers
	if w <= 0 {
		w = 10
	}
	// no sense in idle workers
	if w > n {
		w = n
	}
	return w
}

// run feeds item indexes to a bounded set of workers and blocks until all of
// them return. Items not yet picked up when ctx is done are skipped.
func run(ctx context.Context, n int, opts ParallelOptions, work func(index int)) {
	jobs := make(chan int, n)
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < opts.workers(n); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					return
				}
				work(i)
			}
		}()
	}
	wg.Wait()
}

// ProcessParallel calls itemFunc for every item on a bounded worker pool.
// Results keep the order of items; skipped items leave a zero value.
func ProcessParallel[T any, R any](
	ctx context.Context,
	items []T,
	opts ParallelOptions,
	itemFunc func(ctx context.Context, index int, item T) (R, error),
) ([]R, []error) {
	if len(items) == 0 {
		return []R{}, nil
	}

	results := make([]R, len(items))
	var (
		mu   sync.Mutex
		errs []error
	)
	run(ctx, len(items), opts, func(i int) {
		res, err := itemFunc(ctx, i, items[i])
		results[i] = res
		if err != nil {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}
	})
	return results, errs
}

// ForEach is ProcessParallel for side effects only.
func ForEach[T any](
	ctx context.Context,
	items []T,
	opts ParallelOptions,
	itemFunc func(ctx context.Context, index int, item T) error,
) []error {
	if len(items) == 0 {
		return nil
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	run(ctx, len(items), opts, func(i int) {
		if err := itemFunc(ctx, i, items[i]); err != nil {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}
	})
	return errs
}
