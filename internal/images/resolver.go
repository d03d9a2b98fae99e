// Package images finds a picture for a place by walking an ordered chain of
// strategies and falls back to a deterministic gradient and icon.
package images

import (
	"context"

	"go.uber.org/zap"

	"discovery/internal/cache"
	"discovery/internal/logger"
	"discovery/internal/models"
	"discovery/pkg/metrics"
)

// Query describes the place an image is wanted for.
type Query struct {
	Name         string
	Location     string
	Category     string
	Tags         map[string]string
	MarkerNumber int
}

// Strategy is one link of the chain. ok=false means a miss; errors are
// logged by the Resolver and treated as misses.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, q Query) (url string, ok bool, err error)
}

type Cache interface {
	Image(name string) (string, bool)
	SetImage(ctx context.Context, name, url string)
}

type Resolver struct {
	strategies []Strategy
	cache      Cache
	log        *zap.Logger
}

func NewResolver(c Cache, log *zap.Logger, strategies ...Strategy) *Resolver {
	return &Resolver{strategies: strategies, cache: c, log: logger.OrNop(log)}
}

// Resolve never fails: when every strategy misses the fallback is returned
// and remembered for the place name.
func (r *Resolver) Resolve(ctx context.Context, q Query) *models.Image {
	if r.cache != nil {
		if url, ok := r.cache.Image(q.Name); ok {
			if url == cache.FallbackImage {
				return Fallback(q.MarkerNumber)
			}
			return &models.Image{URL: url, Source: "cache"}
		}
	}

	for _, s := range r.strategies {
		if ctx.Err() != nil {
			return Fallback(q.MarkerNumber)
		}
		url, ok, err := s.Resolve(ctx, q)
		if err != nil {
			r.log.Debug("image strategy failed", zap.String("strategy", s.Name()), zap.String("place", q.Name), zap.Error(err))
			continue
		}
		if !ok || url == "" {
			continue
		}
		metrics.ImageResolutions.WithLabelValues(s.Name()).Inc()
		r.log.Debug("image found", zap.String("strategy", s.Name()), zap.String("place", q.Name))
		if r.cache != nil {
			r.cache.SetImage(ctx, q.Name, url)
		}
		return &models.Image{URL: url, Source: s.Name()}
	}

	metrics.ImageResolutions.WithLabelValues("fallback").Inc()
	if r.cache != nil {
		r.cache.SetImage(ctx, q.Name, cache.FallbackImage)
	}
	return Fallback(q.MarkerNumber)
}
