package discovery

import (
	"sort"
	"strings"

	"discovery/internal/models"
	"discovery/pkg/geo"
)

// MaxStructuredPlaces caps the ranked structured query results.
const MaxStructuredPlaces = 12

var tagWeights = []struct {
	tag    string
	weight int
}{
	{"wikipedia", 10},
	{"wikidata", 8},
	{"image", 6},
	{"website", 3},
	{"description", 2},
}

// Score sums the metadata completeness bonuses of a tag set.
func Score(tags map[string]string) int {
	score := 0
	for _, w := range tagWeights {
		if strings.TrimSpace(tags[w.tag]) != "" {
			score += w.weight
		}
	}
	return score
}

// Rank drops zero scores and duplicate names, orders by score descending
// then distance ascending, and keeps at most limit places.
func Rank(places []*models.Place, limit int) []*models.Place {
	kept := make([]*models.Place, 0, len(places))
	for _, p := range places {
		if p.MetadataScore > 0 {
			kept = append(kept, p)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].MetadataScore != kept[j].MetadataScore {
			return kept[i].MetadataScore > kept[j].MetadataScore
		}
		return kept[i].DistanceKm < kept[j].DistanceKm
	})

	seen := make(map[string]bool, len(kept))
	out := kept[:0]
	for _, p := range kept {
		key := strings.ToLower(p.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ApplyDistance computes distance and walking time from origin, flags
// places beyond the walking threshold and assigns dense marker numbers to
// the displayed ones. A threshold of zero disables the filter.
func ApplyDistance(places []*models.Place, origin models.Coordinates, thresholdMinutes float64) {
	marker := 0
	for _, p := range places {
		p.MarkerNumber = 0
		p.Filtered = false
		if p.Coordinates == nil {
			continue
		}
		p.DistanceKm = geo.DistanceKm(origin.Lat, origin.Lon, p.Coordinates.Lat, p.Coordinates.Lon)
		p.WalkingMinutes = geo.WalkingMinutes(p.DistanceKm)
		p.Filtered = !geo.WithinWalk(p.WalkingMinutes, thresholdMinutes)
		if !p.Filtered {
			marker++
			p.MarkerNumber = marker
		}
	}
}

// Displayed returns the places that get a marker, in marker order.
func Displayed(places []*models.Place) []*models.Place {
	var out []*models.Place
	for _, p := range places {
		if p.Displayed() {
			out = append(out, p)
		}
	}
	return out
}
