package location

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"discovery/internal/logger"
	"discovery/internal/models"
	"discovery/pkg/geo"
)

// YourLocation names a GPS fix that could not be reverse geocoded.
const YourLocation = "Your Location"

type Geocoder interface {
	Search(ctx context.Context, p SearchParams) ([]SearchResult, error)
	Reverse(ctx context.Context, lat, lon float64) (*ReverseResult, error)
}

type IPLocator interface {
	Lookup(ctx context.Context, ip string) (*IPLocation, error)
}

// DeviceLocator yields a device position. It returns
// models.ErrPermissionDenied, models.ErrPositionUnavailable or
// models.ErrTimeout when no fix is available.
type DeviceLocator interface {
	Locate(ctx context.Context) (models.Coordinates, error)
}

// StaticDevice is a DeviceLocator for positions reported by a client.
type StaticDevice struct {
	Coords *models.Coordinates
	Err    error
}

func (d StaticDevice) Locate(context.Context) (models.Coordinates, error) {
	if d.Err != nil {
		return models.Coordinates{}, d.Err
	}
	if d.Coords == nil {
		return models.Coordinates{}, models.ErrPositionUnavailable
	}
	return *d.Coords, nil
}

// Request carries every location hint a caller has. Manual wins over Device,
// and ClientIP is only consulted when the device position is unavailable.
type Request struct {
	Manual   string
	Device   DeviceLocator
	ClientIP string
}

type Resolver struct {
	geocoder Geocoder
	ip       IPLocator
	log      *zap.Logger
}

func NewResolver(geocoder Geocoder, ip IPLocator, log *zap.Logger) *Resolver {
	return &Resolver{geocoder: geocoder, ip: ip, log: logger.OrNop(log)}
}

// Resolve turns a request into a named location.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*models.Location, error) {
	if q := strings.TrimSpace(req.Manual); q != "" {
		return r.Manual(ctx, q)
	}
	if req.Device == nil && r.ip == nil {
		return nil, models.ErrLocationNotFound
	}

	if req.Device != nil {
		coords, err := req.Device.Locate(ctx)
		if err == nil {
			return r.FromCoordinates(ctx, coords, models.SourceGPS), nil
		}
		if !errors.Is(err, models.ErrPositionUnavailable) {
			return nil, err
		}
		r.log.Info("device position unavailable, trying ip lookup", zap.Error(err))
	}

	if r.ip == nil {
		return nil, models.ErrPositionUnavailable
	}
	loc, err := r.ip.Lookup(ctx, req.ClientIP)
	if err != nil {
		r.log.Warn("ip lookup failed", zap.Error(err))
		return nil, models.ErrLocationNotFound
	}
	return &models.Location{
		Name:        geo.Label(loc.City, loc.CountryName),
		Coordinates: models.Coordinates{Lat: loc.Latitude, Lon: loc.Longitude},
		Source:      models.SourceIP,
	}, nil
}

// Manual geocodes a typed place. Country names are searched as countries so
// "Chile" does not resolve to a street, other names as cities first and then
// without a feature type.
func (r *Resolver) Manual(ctx context.Context, query string) (*models.Location, error) {
	params := SearchParams{Query: query, Limit: 1, FeatureType: geo.FeatureType(query)}
	results, err := r.geocoder.Search(ctx, params)
	if errors.Is(err, models.ErrGeocodeNotFound) && params.FeatureType != "" {
		params.FeatureType = ""
		results, err = r.geocoder.Search(ctx, params)
	}
	if err != nil {
		if errors.Is(err, models.ErrGeocodeNotFound) {
			return nil, fmt.Errorf("%s: %w", query, models.ErrLocationNotFound)
		}
		return nil, err
	}
	coords, err := results[0].Coordinates()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", query, models.ErrLocationNotFound)
	}
	return &models.Location{Name: query, Coordinates: coords, Source: models.SourceManual}, nil
}

// FromCoordinates names a position. Reverse geocoding failures are not fatal.
func (r *Resolver) FromCoordinates(ctx context.Context, coords models.Coordinates, source string) *models.Location {
	name := YourLocation
	rev, err := r.geocoder.Reverse(ctx, coords.Lat, coords.Lon)
	if err != nil {
		r.log.Warn("reverse geocode failed", zap.Float64("lat", coords.Lat), zap.Float64("lon", coords.Lon), zap.Error(err))
	} else {
		name = rev.Label()
	}
	return &models.Location{Name: name, Coordinates: coords, Source: source}
}
