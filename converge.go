package symdiff

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotConverged is returned when a transform keeps changing its input
// past the iteration budget.
var ErrNotConverged = errors.New("did not converge")

// Equaler is a value with structural equality.
type Equaler[T any] interface {
	Equal(T) bool
}

// FixedPoint repeatedly applies a transform to its own output until the
// output stops changing.
type FixedPoint[T Equaler[T]] struct {
	// MaxIterations bounds the number of applications; <= 0 is unbounded.
	MaxIterations int
	// Observe is called with every value before the transform is applied
	// to it. It cannot affect the result.
	Observe func(i int, v T)
}

// Run applies f starting at x and returns the first value v with
// f(v) equal to v, along with the number of applications of f.
func (fp FixedPoint[T]) Run(ctx context.Context, f func(T) T, x T) (T, int, error) {
	last := x
	for i := 0; ; i++ {
		if fp.Observe != nil {
			fp.Observe(i, last)
		}
		if err := ctx.Err(); err != nil {
			return last, i, fmt.Errorf("fixed point interrupted after %d iterations: %w", i, err)
		}
		if fp.MaxIterations > 0 && i >= fp.MaxIterations {
			return last, i, fmt.Errorf("%w after %d iterations", ErrNotConverged, i)
		}
		next := f(last)
		if next.Equal(last) {
			return next, i + 1, nil
		}
		last = next
	}
}

// Converge runs f to a fixed point with DefaultMaxIterations.
func Converge[T Equaler[T]](f func(T) T, x T) (T, error) {
	fp := FixedPoint[T]{MaxIterations: DefaultMaxIterations}
	v, _, err := fp.Run(context.Background(), f, x)
	return v, err
}
