package core

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// runPair runs two independent steps and waits for both. When parallel is set
// they share an errgroup, so the first failure cancels the other; otherwise
// they run in order and the second is skipped if the first fails.
func runPair(ctx context.Context, parallel bool, first, second func(context.Context) error) error {
	if !parallel {
		if err := first(ctx); err != nil {
			return err
		}
		return second(ctx)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return first(gctx) })
	g.Go(func() error { return second(gctx) })
	return g.Wait()
}
