package models

import "time"

// DescriptionPlaceholder is shown until the back-fill step replaces it.
const DescriptionPlaceholder = "Loading description..."

// Place is a named point of interest. Coordinates stay nil until a geocode or
// structured lookup succeeds; such places never receive a marker.
type Place struct {
	Name              string            `json:"name"`
	Coordinates       *Coordinates      `json:"coordinates,omitempty"`
	Description       string            `json:"description"`
	DescriptionLoaded bool              `json:"descriptionLoaded"`
	DistanceKm        float64           `json:"distanceKm"`
	WalkingMinutes    float64           `json:"walkingMinutes"`
	MetadataScore     int               `json:"metadataScore"`
	OsmType           string            `json:"osmType,omitempty"`
	OsmID             int64             `json:"osmId,omitempty"`
	Tags              map[string]string `json:"tags,omitempty"`
	MarkerNumber      int               `json:"markerNumber"`
	Filtered          bool              `json:"filtered"`
	Image             *Image            `json:"image,omitempty"`
}

func NewPlace(name string) *Place {
	return &Place{Name: name, Description: DescriptionPlaceholder}
}

// Displayed reports whether the place gets a marker.
func (p *Place) Displayed() bool {
	return p.Coordinates != nil && !p.Filtered
}

// Clone returns a deep copy so readers never share state with the pipeline.
func (p *Place) Clone() *Place {
	c := *p
	if p.Coordinates != nil {
		coords := *p.Coordinates
		c.Coordinates = &coords
	}
	if p.Tags != nil {
		c.Tags = make(map[string]string, len(p.Tags))
		for k, v := range p.Tags {
			c.Tags[k] = v
		}
	}
	if p.Image != nil {
		img := *p.Image
		c.Image = &img
	}
	return &c
}

// Image is the outcome of the image resolution chain. Either URL is set or
// Fallback describes the deterministic gradient/icon to render.
type Image struct {
	URL      string    `json:"url,omitempty"`
	Source   string    `json:"source,omitempty"`
	Fallback *Fallback `json:"fallback,omitempty"`
}

type Fallback struct {
	From string `json:"from"`
	To   string `json:"to"`
	Icon string `json:"icon"`
}

// Discovery is the stored result of one run for a location and category.
type Discovery struct {
	ID        string    `json:"id"`
	Location  Location  `json:"location"`
	Category  string    `json:"category"`
	Strategy  string    `json:"strategy"`
	Places    []*Place  `json:"places"`
	CreatedAt time.Time `json:"createdAt"`
}
