package operations

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// Joined holds the values of two concurrent calls
type Joined[A, B any] struct {
	First  A
	Second B
}

// Join2 runs a and b concurrently and waits for both. A failure of one call does not
// cancel the other. The result is usable only when the returned error is nil; the
// error joins every failure.
func Join2[A, B any](ctx context.Context, a func(context.Context) (A, error), b func(context.Context) (B, error)) (Joined[A, B], error) {
	var (
		out        Joined[A, B]
		errA, errB error
		g          errgroup.Group
	)

	g.Go(func() error {
		out.First, errA = a(ctx)
		return errA
	})
	g.Go(func() error {
		out.Second, errB = b(ctx)
		return errB
	})
	_ = g.Wait()

	if err := errors.Join(errA, errB); err != nil {
		return Joined[A, B]{}, err
	}
	return out, nil
}
