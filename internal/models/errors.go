package models

import "errors"

var (
	ErrTransport           = errors.New("network request failed")
	ErrEmptyPayload        = errors.New("empty or malformed upstream payload")
	ErrGeocodeNotFound     = errors.New("geocode not found")
	ErrGeocodeTooFar       = errors.New("geocode too far from origin")
	ErrPermissionDenied    = errors.New("location permission denied")
	ErrPositionUnavailable = errors.New("position unavailable")
	ErrTimeout             = errors.New("request timed out")
	ErrNoPlaces            = errors.New("no places found")
	ErrLocationNotFound    = errors.New("location not found")
	ErrServerUnreachable   = errors.New("backend server unreachable")
	ErrStale               = errors.New("result superseded by a newer request")
	ErrNoLocation          = errors.New("location not set")
)

// Guidance returns the message shown to the user for failures that end a
// request with nothing to display.
func Guidance(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoPlaces):
		return "No places found. Try another category or widen the walking distance filter."
	case errors.Is(err, ErrNoLocation):
		return "Please set your location first."
	case errors.Is(err, ErrLocationNotFound):
		return "Location not found. Please try another city name or enter your location manually."
	case errors.Is(err, ErrPermissionDenied):
		return "Location access denied. Allow location access in your browser or enter your city name manually."
	case errors.Is(err, ErrPositionUnavailable):
		return "GPS unavailable. Please enter your city name manually."
	case errors.Is(err, ErrTimeout):
		return "Location request timed out. Please try again or enter your city manually."
	case errors.Is(err, ErrServerUnreachable):
		return "Error connecting to server. Make sure the backend is running."
	default:
		return "Something went wrong. Please try again."
	}
}
