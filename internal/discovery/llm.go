package discovery

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"discovery/internal/keys"
	"discovery/internal/logger"
	"discovery/internal/models"
	"discovery/pkg/backend"
	"discovery/pkg/geo"
	"discovery/pkg/location"
)

const (
	// GeocodeBatchSize is how many names are geocoded in parallel.
	GeocodeBatchSize = 3
	// ViewboxDegrees is the half width of the bounded geocoding box.
	ViewboxDegrees = 0.5
	geocodeLimit   = 10
)

type Generator interface {
	Generate(ctx context.Context, req backend.GenerateRequest) (string, error)
}

type Geocoder interface {
	Search(ctx context.Context, p location.SearchParams) ([]location.SearchResult, error)
}

// LLMStrategy asks the backend model for place names and geocodes each one
// near the origin.
type LLMStrategy struct {
	gen      Generator
	geocoder Geocoder
	cache    Cache
	log      *zap.Logger
}

func NewLLMStrategy(gen Generator, geocoder Geocoder, cache Cache, log *zap.Logger) *LLMStrategy {
	return &LLMStrategy{gen: gen, geocoder: geocoder, cache: cache, log: logger.OrNop(log)}
}

func (*LLMStrategy) Name() string { return "llm" }

func (s *LLMStrategy) Find(ctx context.Context, req Request) ([]*models.Place, error) {
	text, err := s.gen.Generate(ctx, backend.GenerateRequest{
		Prompt:      PlacesPrompt(req.Category, req.Location.Name),
		MaxTokens:   512,
		Temperature: backend.Temperature(backend.DefaultTemperature),
	})
	if err != nil {
		return nil, fmt.Errorf("place names: %w", err)
	}
	names := ParsePlaceNames(text)
	if len(names) == 0 {
		s.log.Warn("model answer had no place names", zap.String("category", req.Category))
		return nil, nil
	}
	return s.Locate(ctx, names, req.Location, req.Category)
}

// Locate geocodes names near loc in batches of GeocodeBatchSize. Names that
// cannot be placed keep nil coordinates. Only a cancelled ctx is an error.
func (s *LLMStrategy) Locate(ctx context.Context, names []string, loc models.Location, category string) ([]*models.Place, error) {
	req := Request{Location: loc, Category: category}
	places := make([]*models.Place, len(names))
	for i, name := range names {
		places[i] = models.NewPlace(name)
	}
	for start := 0; start < len(places); start += GeocodeBatchSize {
		end := min(start+GeocodeBatchSize, len(places))
		g, gctx := errgroup.WithContext(ctx)
		for _, p := range places[start:end] {
			p := p
			g.Go(func() error {
				s.geocode(gctx, p, req)
				return nil
			})
		}
		_ = g.Wait()
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return places, nil
}

// geocode tries "name, location", then "name", then "name category". A place
// that cannot be placed keeps nil coordinates.
func (s *LLMStrategy) geocode(ctx context.Context, p *models.Place, req Request) {
	key := keys.GeocodeKey(p.Name, req.Location.Name)
	if coords, ok := s.cache.Geocode(key); ok {
		p.Coordinates = &coords
		return
	}

	origin := req.Location.Coordinates
	queries := []string{key, p.Name, p.Name + " " + req.Category}
	for _, q := range queries {
		results, err := s.geocoder.Search(ctx, location.SearchParams{
			Query:     q,
			Limit:     geocodeLimit,
			Near:      &origin,
			Radius:    ViewboxDegrees,
			Bounded:   true,
			ExtraTags: true,
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if !errors.Is(err, models.ErrGeocodeNotFound) {
				s.log.Debug("geocode attempt failed", zap.String("query", q), zap.Error(err))
			}
			continue
		}
		best, coords, ok := nearest(results, origin)
		if !ok {
			continue
		}
		if km := geo.DistanceKm(origin.Lat, origin.Lon, coords.Lat, coords.Lon); km > geo.MaxDistanceKm {
			s.log.Info("discarding distant match", zap.String("place", p.Name), zap.Float64("km", km), zap.Error(models.ErrGeocodeTooFar))
			continue
		}
		p.Coordinates = &coords
		p.OsmType = best.OsmType
		p.OsmID = best.OsmID
		if len(best.ExtraTags) > 0 {
			p.Tags = best.ExtraTags
		}
		s.cache.SetGeocode(ctx, key, coords)
		return
	}
	s.log.Warn("could not geocode place", zap.String("place", p.Name), zap.String("location", req.Location.Name))
}

// nearest picks the result closest to origin.
func nearest(results []location.SearchResult, origin models.Coordinates) (location.SearchResult, models.Coordinates, bool) {
	var (
		best       location.SearchResult
		bestCoords models.Coordinates
		found      bool
		minDist    = math.Inf(1)
	)
	for _, r := range results {
		c, err := r.Coordinates()
		if err != nil {
			continue
		}
		if d := geo.DistanceKm(origin.Lat, origin.Lon, c.Lat, c.Lon); d < minDist {
			minDist, best, bestCoords, found = d, r, c, true
		}
	}
	return best, bestCoords, found
}
