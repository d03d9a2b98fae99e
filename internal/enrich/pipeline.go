package enrich

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"discovery/internal/logger"
)

// Pipeline applies a sequence of stages to every item read from a channel.
// Steps within a stage run in parallel, stages run one after another, and
// step errors are logged without stopping the item.
type Pipeline[T any] struct {
	stages []Stage[T]
	log    *zap.Logger
}

// NewPipeline constructs a Pipeline from the provided stages. Stages will be
// applied to each item in order.
func NewPipeline[T any](log *zap.Logger, stages ...Stage[T]) *Pipeline[T] {
	return &Pipeline[T]{stages: stages, log: logger.OrNop(log)}
}

// Process consumes items until the channel is closed or ctx is cancelled and
// returns how many items went through every stage. Items left in the channel
// after cancellation are not touched.
func (p *Pipeline[T]) Process(ctx context.Context, in <-chan *T) int {
	done := 0
	for item := range in {
		if ctx.Err() != nil {
			p.log.Debug("pipeline cancelled", zap.Int("processed", done))
			return done
		}
		p.Apply(ctx, item)
		done++
	}
	return done
}

// Apply runs every stage on a single item.
func (p *Pipeline[T]) Apply(ctx context.Context, item *T) {
	for i, stage := range p.stages {
		if ctx.Err() != nil {
			return
		}
		var wg sync.WaitGroup
		for j, step := range stage.steps {
			wg.Add(1)
			go func(j int, step Step[T]) {
				defer wg.Done()
				if err := step(ctx, item); err != nil {
					p.log.Warn("step failed", zap.Int("stage", i), zap.Int("step", j), zap.Error(err))
				}
			}(j, step)
		}
		wg.Wait() // stage barrier
	}
}

// Feed returns a closed, buffered channel holding items.
func Feed[T any](items []*T) <-chan *T {
	ch := make(chan *T, len(items))
	for _, item := range items {
		ch <- item
	}
	close(ch)
	return ch
}
