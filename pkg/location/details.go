package location

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"discovery/pkg/metrics"
)

type NominatimDetailsResponse struct {
	PlaceID             int64             `json:"place_id"`
	OsmType             string            `json:"osm_type"`
	OsmID               int64             `json:"osm_id"`
	Category            string            `json:"category"`
	Type                string            `json:"type"`
	LocalName           string            `json:"localname"`
	Names               map[string]string `json:"names"`
	CountryCode         string            `json:"country_code"`
	Importance          float64           `json:"importance"`
	ExtraTags           map[string]string `json:"extratags"`
	CalculatedWikipedia string            `json:"calculated_wikipedia"`
}

// Tags merges the extra tags with the computed wikipedia reference so callers
// can treat details like a structured query element.
func (d *NominatimDetailsResponse) Tags() map[string]string {
	tags := make(map[string]string, len(d.ExtraTags)+1)
	for k, v := range d.ExtraTags {
		tags[k] = v
	}
	if _, ok := tags["wikipedia"]; !ok && d.CalculatedWikipedia != "" {
		tags["wikipedia"] = d.CalculatedWikipedia
	}
	return tags
}

// Details fetches the full record of an OSM object. osmType accepts either
// the search form ("node") or the letter form ("N").
func (c *NominatimClient) Details(ctx context.Context, osmType string, osmID int64) (*NominatimDetailsResponse, error) {
	params := url.Values{}
	params.Set("osmtype", osmTypeLetter(osmType))
	params.Set("osmid", strconv.FormatInt(osmID, 10))
	params.Set("addressdetails", "0")
	params.Set("hierarchy", "0")
	params.Set("format", "json")

	var details NominatimDetailsResponse
	err := c.get(ctx, "/details", params, &details)
	metrics.Observe("nominatim_details", err)
	if err != nil {
		return nil, fmt.Errorf("details %s %d: %w", osmType, osmID, err)
	}
	return &details, nil
}
