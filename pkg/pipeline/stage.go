// Package pipeline composes workflow steps into typed stages so a host can
// drive them without the port-index protocol.
package pipeline

import (
	"context"
	"fmt"
)

// Stage turns an input into an output.
type Stage[In, Out any] interface {
	Execute(ctx context.Context, input In) (Out, error)
}

// StageFunc adapts a function to Stage.
type StageFunc[In, Out any] func(ctx context.Context, input In) (Out, error)

// Execute implements Stage.
func (f StageFunc[In, Out]) Execute(ctx context.Context, input In) (Out, error) {
	return f(ctx, input)
}

// Chain feeds the output of first into second. The second stage is skipped
// when the first fails or ctx is already done.
func Chain[A, B, C any](first Stage[A, B], second Stage[B, C]) Stage[A, C] {
	return StageFunc[A, C](func(ctx context.Context, input A) (C, error) {
		var zero C
		mid, err := first.Execute(ctx, input)
		if err != nil {
			return zero, err
		}
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		return second.Execute(ctx, mid)
	})
}

// Named prefixes errors from s with name.
func Named[In, Out any](name string, s Stage[In, Out]) Stage[In, Out] {
	return StageFunc[In, Out](func(ctx context.Context, input In) (Out, error) {
		out, err := s.Execute(ctx, input)
		if err != nil {
			return out, fmt.Errorf("%s: %w", name, err)
		}
		return out, nil
	})
}
