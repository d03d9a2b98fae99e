package discovery

import "fmt"

// DefaultCategory is used for categories without a dedicated prompt.
const DefaultCategory = "landmarks"

var placesPrompts = map[string]string{
	"landmarks":     "famous landmarks and monuments in %s",
	"restaurants":   "popular restaurants in %s",
	"cafes":         "popular cafés and coffee shops in %s",
	"museums":       "museums and art galleries in %s",
	"parks":         "parks and green spaces in %s",
	"shopping":      "shopping centers and markets in %s",
	"nightlife":     "nightlife venues and bars in %s",
	"entertainment": "entertainment venues in %s",
	"hotels":        "notable hotels in %s",
	"beaches":       "beaches and waterfront areas in or near %s",
	"viewpoints":    "viewpoints and scenic spots in %s",
	"historical":    "historical sites and buildings in %s",
}

var descriptionPrompts = map[string]string{
	"landmarks":     "Describe %s in %s in 2 sentences. Focus on what makes it special.",
	"restaurants":   "Describe %s restaurant in %s in 2 sentences. Include cuisine type.",
	"cafes":         "Describe %s café in %s in 2 sentences. Include atmosphere.",
	"museums":       "Describe %s museum in %s in 2 sentences. What does it feature?",
	"parks":         "Describe %s park in %s in 2 sentences.",
	"shopping":      "Describe %s shopping in %s in 2 sentences.",
	"nightlife":     "Describe %s venue in %s in 2 sentences.",
	"entertainment": "Describe %s entertainment venue in %s in 2 sentences.",
	"hotels":        "Describe %s hotel in %s in 2 sentences.",
	"beaches":       "Describe %s beach in %s in 2 sentences.",
	"viewpoints":    "Describe %s viewpoint in %s in 2 sentences.",
	"historical":    "Describe %s historical site in %s in 2 sentences.",
}

// PlacesPrompt asks the model for exactly MaxLLMPlaces names.
func PlacesPrompt(category, location string) string {
	tmpl, ok := placesPrompts[category]
	if !ok {
		tmpl = placesPrompts[DefaultCategory]
	}
	return fmt.Sprintf("List exactly %d %s. Format: 1. Name\n2. Name\n etc.", MaxLLMPlaces, fmt.Sprintf(tmpl, location))
}

func DescriptionPrompt(category, name, location string) string {
	tmpl, ok := descriptionPrompts[category]
	if !ok {
		tmpl = descriptionPrompts[DefaultCategory]
	}
	return fmt.Sprintf(tmpl, name, location)
}

// KnownCategory reports whether category has dedicated prompts.
func KnownCategory(category string) bool {
	_, ok := placesPrompts[category]
	return ok
}
