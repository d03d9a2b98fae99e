package overpass

// Filter matches elements whose Key tag holds one of Values.
type Filter struct {
	Key    string
	Values []string
}

var categoryFilters = map[string][]Filter{
	"landmarks":     {{"tourism", []string{"attraction", "monument"}}, {"historic", []string{"monument", "memorial"}}},
	"restaurants":   {{"amenity", []string{"restaurant"}}},
	"cafes":         {{"amenity", []string{"cafe"}}},
	"museums":       {{"tourism", []string{"museum", "gallery"}}},
	"parks":         {{"leisure", []string{"park", "garden", "nature_reserve"}}},
	"shopping":      {{"shop", []string{"mall", "department_store"}}, {"amenity", []string{"marketplace"}}},
	"nightlife":     {{"amenity", []string{"bar", "pub", "nightclub"}}},
	"entertainment": {{"amenity", []string{"theatre", "cinema", "arts_centre"}}, {"tourism", []string{"theme_park", "zoo"}}},
	"hotels":        {{"tourism", []string{"hotel"}}},
	"beaches":       {{"natural", []string{"beach"}}, {"leisure", []string{"beach_resort"}}},
	"viewpoints":    {{"tourism", []string{"viewpoint"}}},
	"historical":    {{"historic", []string{"castle", "monument", "ruins", "archaeological_site", "memorial"}}},
}

// Filters returns the tag filters for a category. Unknown categories are
// treated as landmarks.
func Filters(category string) []Filter {
	if f, ok := categoryFilters[category]; ok {
		return f
	}
	return categoryFilters["landmarks"]
}

// Categories lists every category with a dedicated mapping.
func Categories() []string {
	return []string{
		"landmarks", "restaurants", "cafes", "museums", "parks", "shopping",
		"nightlife", "entertainment", "hotels", "beaches", "viewpoints", "historical",
	}
}
