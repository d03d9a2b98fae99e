package enrich

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type PipelineItem struct {
	mu      sync.Mutex
	Results map[string]any
}

func NewPipelineItem() *PipelineItem {
	return &PipelineItem{Results: make(map[string]any)}
}

func (p *PipelineItem) set(key string, val any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Results[key] = val
}

func StepAddValue(key string, val any) Step[PipelineItem] {
	return func(ctx context.Context, item *PipelineItem) error {
		item.set(key, val)
		return nil
	}
}

func StepError(_ context.Context, _ *PipelineItem) error {
	return errors.New("mock step failed")
}

func TestPipeline_Process(t *testing.T) {
	tests := []struct {
		name     string
		stages   []Stage[PipelineItem]
		expected map[string]any
	}{
		{
			name:     "single step",
			stages:   []Stage[PipelineItem]{NewStage(StepAddValue("description", "A museum."))},
			expected: map[string]any{"description": "A museum."},
		},
		{
			name: "two steps in one stage run in parallel",
			stages: []Stage[PipelineItem]{
				NewStage(
					StepAddValue("description", "A museum."),
					StepAddValue("image", "https://upload.wikimedia.org/a.jpg"),
				),
			},
			expected: map[string]any{"description": "A museum.", "image": "https://upload.wikimedia.org/a.jpg"},
		},
		{
			name: "multi-stage sequential dependency",
			stages: []Stage[PipelineItem]{
				NewStage(StepAddValue("a", "first")),
				NewStage(func(_ context.Context, item *PipelineItem) error {
					item.mu.Lock()
					defer item.mu.Unlock()
					item.Results["b"] = item.Results["a"].(string) + "+second"
					return nil
				}),
			},
			expected: map[string]any{"a": "first", "b": "first+second"},
		},
		{
			name: "step error does not break pipeline",
			stages: []Stage[PipelineItem]{
				NewStage(StepError),
				NewStage(StepAddValue("ok", true)),
			},
			expected: map[string]any{"ok": true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			item := NewPipelineItem()
			p := NewPipeline(zap.NewNop(), tt.stages...)
			if n := p.Process(ctx, Feed([]*PipelineItem{item})); n != 1 {
				t.Fatalf("processed %d items, want 1", n)
			}

			if !reflect.DeepEqual(item.Results, tt.expected) {
				t.Errorf("got %+v, expected %+v", item.Results, tt.expected)
			}
		})
	}
}

func TestPipeline_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	first, second := NewPipelineItem(), NewPipelineItem()

	p := NewPipeline(nil, NewStage(func(_ context.Context, item *PipelineItem) error {
		item.set("seen", true)
		cancel()
		return nil
	}))
	n := p.Process(ctx, Feed([]*PipelineItem{first, second}))

	if n != 1 {
		t.Fatalf("processed %d items, want 1", n)
	}
	if _, ok := second.Results["seen"]; ok {
		t.Errorf("item after cancellation was processed")
	}
}
