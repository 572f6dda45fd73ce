// Package workers splits per-row filter work across goroutines.
package workers

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// RowFunc processes output rows [y0, y1). It should return ctx.Err() once
// the context is done.
type RowFunc func(ctx context.Context, y0, y1 int) error

// Count resolves a requested worker count against n rows. Zero or less
// selects GOMAXPROCS.
func Count(requested, n int) int {
	if requested <= 0 {
		requested = runtime.GOMAXPROCS(0)
	}
	if requested > n {
		requested = n
	}
	return max(1, requested)
}

// Rows runs fn over [0, n) in contiguous bands, one band per worker. The
// first error cancels the remaining bands.
func Rows(ctx context.Context, n, workers int, fn RowFunc) error {
	if n <= 0 {
		return nil
	}
	if err := Check(ctx); err != nil {
		return err
	}

	count := Count(workers, n)
	if count == 1 {
		return fn(ctx, 0, n)
	}

	g, gctx := errgroup.WithContext(ctx)
	band := (n + count - 1) / count
	for y0 := 0; y0 < n; y0 += band {
		y0, y1 := y0, min(y0+band, n)
		g.Go(func() error {
			return fn(gctx, y0, y1)
		})
	}
	return g.Wait()
}

// Check returns ctx.Err() without blocking.
func Check(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
