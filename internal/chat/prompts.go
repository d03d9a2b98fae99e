package chat

import (
	"fmt"
	"sort"
)

// Prompt is what a quick action sends: the text request, the image request
// that illustrates it and the heading shown above the results.
type Prompt struct {
	Action string `json:"action"`
	Title  string `json:"title"`
	Text   string `json:"text"`
	Image  string `json:"image"`
}

type actionPrompts struct {
	title string
	text  string
	image string
}

var actions = map[string]actionPrompts{
	"landmarks": {
		title: "Landmarks",
		text:  "I'm currently in %s. List exactly 5 must-see landmarks and historical sites. Format each as: **Name** - Brief description (1-2 sentences) and why it's worth visiting.",
		image: "Beautiful scenic view of the most famous landmark in %s, professional travel photography, golden hour, stunning architecture",
	},
	"restaurants": {
		title: "Restaurants",
		text:  "I'm in %s. List exactly 5 best local restaurants. Format each as: **Name** - Cuisine type, brief description, and what to try.",
		image: "Delicious local cuisine and traditional dishes from %s, food photography, vibrant colors, appetizing presentation",
	},
	"activities": {
		title: "Activities",
		text:  "I'm visiting %s. List exactly 5 popular activities and attractions. Format each as: **Name** - Brief description and what makes it special.",
		image: "Popular tourist attractions and activities in %s, vibrant city life, people enjoying activities, professional photography",
	},
	"nature": {
		title: "Nature Spots",
		text:  "I'm in %s. List exactly 5 beautiful nature spots and parks. Format each as: **Name** - Brief description and what you can do there.",
		image: "Breathtaking natural landscape near %s, beautiful nature scenery, hiking trails, lush greenery, scenic vista",
	},
	"shopping": {
		title: "Shopping",
		text:  "I'm in %s. List exactly 5 best shopping places. Format each as: **Name** - Type of shopping and what you can find.",
		image: "Bustling shopping district and local market in %s, colorful market stalls, shopping atmosphere, vibrant scene",
	},
	"nightlife": {
		title: "Nightlife",
		text:  "I'm in %s. List exactly 5 nightlife venues. Format each as: **Name** - Type of venue and what makes it special.",
		image: "Vibrant nightlife scene in %s, city lights at night, entertainment district, atmospheric evening lighting",
	},
}

// LocationPrompt builds the prompts of a quick action for location.
func LocationPrompt(action, location string) (Prompt, error) {
	a, ok := actions[action]
	if !ok {
		return Prompt{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	return Prompt{
		Action: action,
		Title:  a.title,
		Text:   fmt.Sprintf(a.text, location),
		Image:  fmt.Sprintf(a.image, location),
	}, nil
}

// Actions lists the quick actions in a stable order.
func Actions() []string {
	out := make([]string, 0, len(actions))
	for k := range actions {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
