package keys

import (
	"fmt"
	"strings"

	"discovery/internal/models"
)

// CacheBlob is the key the whole cache is persisted under.
const CacheBlob = "locationAppCache"

const (
	discoveryPrefix = "discoveries/"
	enrichedPrefix  = "enriched/"
)

// sanitizeKey lowercases the string, drops commas and replaces spaces with
// hyphens.
func sanitizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, ",", "")
	return strings.Join(strings.Fields(s), "-")
}

// Discovery returns the canonical S3 key for a freshly discovered place list.
func Discovery(d models.Discovery) string {
	return fmt.Sprintf("%s%s/%s.json", discoveryPrefix, sanitizeKey(d.Location.Name), sanitizeKey(d.Category))
}

// Enriched returns the key the enriched copy of a discovery is written under.
func Enriched(d models.Discovery) string {
	return fmt.Sprintf("%s%s/%s.json", enrichedPrefix, sanitizeKey(d.Location.Name), sanitizeKey(d.Category))
}

// IsDiscovery reports whether an object key holds a raw discovery.
func IsDiscovery(key string) bool {
	return strings.HasPrefix(key, discoveryPrefix) && strings.HasSuffix(key, ".json")
}

// RecommendationKey is the cache key of a category run at a location.
func RecommendationKey(category, location string) string {
	return category + "-" + location
}

// GeocodeKey is the cache key of a place geocoded near a location.
func GeocodeKey(name, location string) string {
	return name + ", " + location
}
