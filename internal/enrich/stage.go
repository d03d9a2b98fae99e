// Package enrich runs independent enrichment steps in parallel within a
// stage while keeping stages sequential.
package enrich

import "context"

// Step mutates one item. Steps of the same stage run concurrently on the same
// item and must not write the same fields.
type Step[T any] func(ctx context.Context, item *T) error

// Stage groups steps that are safe to execute in parallel for a single item.
type Stage[T any] struct {
	steps []Step[T]
}

func NewStage[T any](steps ...Step[T]) Stage[T] {
	return Stage[T]{steps: steps}
}
