package discovery

import (
	"context"

	"go.uber.org/zap"

	"discovery/internal/keys"
	"discovery/internal/logger"
	"discovery/internal/models"
)

// Result is the outcome of one pipeline run.
type Result struct {
	Places   []*models.Place
	Strategy string
	Cached   bool
}

// Pipeline tries its strategies in order and keeps the first one that
// places at least one result on the map.
type Pipeline struct {
	strategies []Strategy
	cache      Cache
	log        *zap.Logger
}

func NewPipeline(cache Cache, log *zap.Logger, strategies ...Strategy) *Pipeline {
	return &Pipeline{strategies: strategies, cache: cache, log: logger.OrNop(log)}
}

func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	key := keys.RecommendationKey(req.Category, req.Location.Name)
	if places, ok := p.cache.Recommendations(key); ok {
		p.log.Debug("using cached recommendations", zap.String("key", key))
		return &Result{Places: places, Strategy: "cache", Cached: true}, nil
	}

	for _, s := range p.strategies {
		places, err := s.Find(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			p.log.Warn("strategy failed", zap.String("strategy", s.Name()), zap.String("category", req.Category), zap.Error(err))
			continue
		}
		if !anyPlaced(places) {
			p.log.Info("strategy found nothing", zap.String("strategy", s.Name()), zap.String("category", req.Category))
			continue
		}
		p.log.Info("places found",
			zap.String("strategy", s.Name()),
			zap.String("category", req.Category),
			zap.String("location", req.Location.Name),
			zap.Int("count", len(places)))
		p.cache.SetRecommendations(ctx, key, places)
		return &Result{Places: places, Strategy: s.Name()}, nil
	}
	return nil, models.ErrNoPlaces
}

// Remember overwrites the cached recommendations, typically once
// descriptions have been filled in.
func (p *Pipeline) Remember(ctx context.Context, req Request, places []*models.Place) {
	p.cache.SetRecommendations(ctx, keys.RecommendationKey(req.Category, req.Location.Name), places)
}

func anyPlaced(places []*models.Place) bool {
	for _, p := range places {
		if p.Coordinates != nil {
			return true
		}
	}
	return false
}
