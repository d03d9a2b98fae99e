package discovery

import (
	"context"

	"discovery/internal/models"
)

// Request names what to discover and around where.
type Request struct {
	Location models.Location
	Category string
}

// Strategy produces candidate places for a request. An empty result is not
// an error; the pipeline moves on to the next strategy.
type Strategy interface {
	Name() string
	Find(ctx context.Context, req Request) ([]*models.Place, error)
}

// Cache is the part of the cache the pipeline and strategies use.
type Cache interface {
	Recommendations(key string) ([]*models.Place, bool)
	SetRecommendations(ctx context.Context, key string, places []*models.Place)
	Geocode(query string) (models.Coordinates, bool)
	SetGeocode(ctx context.Context, query string, coords models.Coordinates)
}
