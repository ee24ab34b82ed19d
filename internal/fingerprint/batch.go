package fingerprint

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// BatchResult is the outcome of hashing one input of a batch.
type BatchResult[T any] struct {
	Index int
	Value T
	Err   error
}

// HashAll applies fn to every input using up to workers goroutines (all CPUs
// when workers is not positive). A failing input only fails its own result;
// the returned error is set when ctx is cancelled before every input was
// processed.
func HashAll[S, T any](ctx context.Context, inputs []S, fn func(S) (T, error), workers int) ([]BatchResult[T], error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	results := make([]BatchResult[T], len(inputs))
	for i := range results {
		results[i].Index = i
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, input := range inputs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i].Value, results[i].Err = fn(input)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}
