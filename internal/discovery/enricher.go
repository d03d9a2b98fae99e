package discovery

import (
	"context"

	"go.uber.org/zap"

	"discovery/internal/enrich"
	"discovery/internal/images"
	"discovery/internal/models"
	"discovery/pkg/location"
)

type TagSource interface {
	Details(ctx context.Context, osmType string, osmID int64) (*location.NominatimDetailsResponse, error)
}

type ImageResolver interface {
	Resolve(ctx context.Context, q images.Query) *models.Image
}

// Item is one place moving through the enrichment stages.
type Item struct {
	Index    int
	Place    *models.Place
	Category string
	Location string
	onDone   func(index int, p *models.Place)
}

// Enricher back-fills tags, descriptions and images. Tags are fetched first
// so the description and image steps, which run in parallel, can use them.
type Enricher struct {
	pipeline *enrich.Pipeline[Item]
}

// NewEnricher builds the stages from the collaborators that are non-nil.
func NewEnricher(tags TagSource, describer *Describer, resolver ImageResolver, log *zap.Logger) *Enricher {
	var stages []enrich.Stage[Item]
	if tags != nil {
		stages = append(stages, enrich.NewStage(tagStep(tags)))
	}
	var parallel []enrich.Step[Item]
	if describer != nil {
		parallel = append(parallel, func(ctx context.Context, it *Item) error {
			return describer.Describe(ctx, it.Category, it.Location, it.Place)
		})
	}
	if resolver != nil {
		parallel = append(parallel, imageStep(resolver))
	}
	if len(parallel) > 0 {
		stages = append(stages, enrich.NewStage(parallel...))
	}
	stages = append(stages, enrich.NewStage(func(_ context.Context, it *Item) error {
		if it.onDone != nil {
			it.onDone(it.Index, it.Place)
		}
		return nil
	}))
	return &Enricher{pipeline: enrich.NewPipeline(log, stages...)}
}

func tagStep(tags TagSource) enrich.Step[Item] {
	return func(ctx context.Context, it *Item) error {
		p := it.Place
		if len(p.Tags) > 0 || p.OsmID == 0 || p.OsmType == "" {
			return nil
		}
		d, err := tags.Details(ctx, p.OsmType, p.OsmID)
		if err != nil {
			return err
		}
		p.Tags = d.Tags()
		return nil
	}
}

func imageStep(resolver ImageResolver) enrich.Step[Item] {
	return func(ctx context.Context, it *Item) error {
		p := it.Place
		if p.Coordinates == nil || p.Image != nil {
			return nil
		}
		p.Image = resolver.Resolve(ctx, images.Query{
			Name:         p.Name,
			Location:     it.Location,
			Category:     it.Category,
			Tags:         p.Tags,
			MarkerNumber: p.MarkerNumber,
		})
		return nil
	}
}

// Enrich runs every place through the stages in order and calls onDone
// after each one. It returns how many places were finished before ctx was
// cancelled.
func (e *Enricher) Enrich(ctx context.Context, category, location string, places []*models.Place, onDone func(index int, p *models.Place)) int {
	items := make([]*Item, len(places))
	for i, p := range places {
		items[i] = &Item{Index: i, Place: p, Category: category, Location: location, onDone: onDone}
	}
	return e.pipeline.Process(ctx, enrich.Feed(items))
}
