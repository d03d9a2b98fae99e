package geo

import "math"

const (
	// KmPerDegree scales both latitude and longitude deltas. The projection
	// is an equirectangular approximation and deliberately ignores latitude.
	KmPerDegree = 111.0
	// WalkingSpeedKmh is the pace walking estimates assume.
	WalkingSpeedKmh = 5.0
	// MaxDistanceKm bounds how far from the origin a result may land before
	// it is treated as a wrong match.
	MaxDistanceKm = 100.0
)

// DistanceKm approximates the distance between two points.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * KmPerDegree
	dLon := (lon2 - lon1) * KmPerDegree
	return math.Sqrt(dLat*dLat + dLon*dLon)
}

// WalkingMinutes converts a distance into minutes at WalkingSpeedKmh.
func WalkingMinutes(km float64) float64 {
	return km / WalkingSpeedKmh * 60
}

// WithinWalk reports whether a place minutes away passes a threshold. The
// boundary is inclusive and a threshold of zero or less disables filtering.
func WithinWalk(minutes, threshold float64) bool {
	if threshold <= 0 {
		return true
	}
	return minutes <= threshold
}

// Viewbox returns the Nominatim viewbox string (left,top,right,bottom) for a
// square of +-radius degrees around a point.
func Viewbox(lat, lon, radius float64) (left, top, right, bottom float64) {
	return lon - radius, lat + radius, lon + radius, lat - radius
}
