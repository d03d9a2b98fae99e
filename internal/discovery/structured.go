package discovery

import (
	"context"
	"fmt"

	"discovery/internal/models"
	"discovery/pkg/geo"
	"discovery/pkg/overpass"
)

// SearchRadiusMeters bounds the structured query around the origin.
const SearchRadiusMeters = 10000

type POISource interface {
	Around(ctx context.Context, lat, lon float64, radiusMeters int, category string) ([]overpass.Element, error)
}

// StructuredStrategy queries map data directly and ranks elements by how
// well documented they are.
type StructuredStrategy struct {
	source POISource
}

func NewStructuredStrategy(source POISource) *StructuredStrategy {
	return &StructuredStrategy{source: source}
}

func (*StructuredStrategy) Name() string { return "structured" }

func (s *StructuredStrategy) Find(ctx context.Context, req Request) ([]*models.Place, error) {
	origin := req.Location.Coordinates
	elements, err := s.source.Around(ctx, origin.Lat, origin.Lon, SearchRadiusMeters, req.Category)
	if err != nil {
		return nil, fmt.Errorf("structured query: %w", err)
	}

	places := make([]*models.Place, 0, len(elements))
	for _, el := range elements {
		name := el.Name()
		coords, ok := el.Coordinates()
		if name == "" || !ok {
			continue
		}
		p := models.NewPlace(name)
		p.Coordinates = &coords
		p.Tags = el.Tags
		p.OsmType = el.Type
		p.OsmID = el.ID
		p.MetadataScore = Score(el.Tags)
		p.DistanceKm = geo.DistanceKm(origin.Lat, origin.Lon, coords.Lat, coords.Lon)
		places = append(places, p)
	}
	return Rank(places, MaxStructuredPlaces), nil
}
