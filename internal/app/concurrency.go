package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// MapLimit applies fn to every item with at most limit calls in flight.
// Results keep the order of items. The first error cancels the remaining work.
//
//	outcomes, err := MapLimit(ctx, 8, expressions, func(ctx context.Context, expr string) (domain.RollOutcome, error) {
//	    return svc.Roll(ctx, RollRequest{Expression: expr})
//	})
func MapLimit[T, R any](ctx context.Context, limit int, items []T, fn func(context.Context, T) (R, error)) ([]R, error) {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	results := make([]R, len(items))

	for i, item := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			r, err := fn(ctx, item)
			if err != nil {
				return err
			}

			results[i] = r

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("parallel execution failed: %w", err)
	}

	return results, nil
}

// Drain runs workers goroutines that consume ch until it is closed or ctx
// is done. A worker error cancels the others and is returned.
func Drain[T any](ctx context.Context, workers int, ch <-chan T, fn func(context.Context, T) error) error {
	g, ctx := errgroup.WithContext(ctx)

	for range max(workers, 1) {
		g.Go(func() error {
			for {
				select {
				case item, ok := <-ch:
					if !ok {
						return nil
					}

					if err := fn(ctx, item); err != nil {
						return err
					}
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("drain failed: %w", err)
	}

	return nil
}
