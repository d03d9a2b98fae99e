package location

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"discovery/internal/models"
	"discovery/pkg/geo"
	"discovery/pkg/metrics"
)

const nominatimBaseURL = "https://nominatim.openstreetmap.org"

// NominatimClient talks to the OpenStreetMap Nominatim geocoder. Every call
// waits on a shared limiter so batches of lookups respect the usage policy.
type NominatimClient struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
}

func NewNominatimClient(userAgent string, interval time.Duration) *NominatimClient {
	if userAgent == "" {
		userAgent = "LocalDiscoveryApp/1.0"
	}
	return &NominatimClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    nominatimBaseURL,
		userAgent:  userAgent,
		limiter:    rate.NewLimiter(rate.Every(interval), 1),
	}
}

// SearchResult is one entry of a /search response.
type SearchResult struct {
	PlaceID     int64             `json:"place_id"`
	OsmType     string            `json:"osm_type"`
	OsmID       int64             `json:"osm_id"`
	Lat         string            `json:"lat"`
	Lon         string            `json:"lon"`
	Class       string            `json:"class"`
	Type        string            `json:"type"`
	Importance  float64           `json:"importance"`
	AddressType string            `json:"addresstype"`
	Name        string            `json:"name"`
	DisplayName string            `json:"display_name"`
	ExtraTags   map[string]string `json:"extratags"`
}

// Coordinates parses the string lat/lon pair Nominatim returns.
func (r SearchResult) Coordinates() (models.Coordinates, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("bad latitude %q: %w", r.Lat, models.ErrEmptyPayload)
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("bad longitude %q: %w", r.Lon, models.ErrEmptyPayload)
	}
	return models.Coordinates{Lat: lat, Lon: lon}, nil
}

// SearchParams narrows a free text search. Near with Radius > 0 adds a
// viewbox of +-Radius degrees around Near.
type SearchParams struct {
	Query       string
	Limit       int
	Near        *models.Coordinates
	Radius      float64
	Bounded     bool
	FeatureType string
	ExtraTags   bool
}

// Search runs a forward geocode. An empty result set is returned as
// models.ErrGeocodeNotFound.
func (c *NominatimClient) Search(ctx context.Context, p SearchParams) ([]SearchResult, error) {
	params := url.Values{}
	params.Set("q", p.Query)
	params.Set("format", "json")
	params.Set("accept-language", "en")
	limit := p.Limit
	if limit <= 0 {
		limit = 1
	}
	params.Set("limit", strconv.Itoa(limit))
	if p.Near != nil && p.Radius > 0 {
		left, top, right, bottom := geo.Viewbox(p.Near.Lat, p.Near.Lon, p.Radius)
		params.Set("viewbox", fmt.Sprintf("%f,%f,%f,%f", left, top, right, bottom))
		if p.Bounded {
			params.Set("bounded", "1")
		}
	}
	if p.FeatureType != "" {
		params.Set("featuretype", p.FeatureType)
	}
	if p.ExtraTags {
		params.Set("extratags", "1")
	}

	var results []SearchResult
	err := c.get(ctx, "/search", params, &results)
	metrics.Observe("nominatim_search", err)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no results for %s: %w", p.Query, models.ErrGeocodeNotFound)
	}
	return results, nil
}

// ReverseResult is the subset of a /reverse response used to name a position.
type ReverseResult struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		County  string `json:"county"`
		Country string `json:"country"`
	} `json:"address"`
}

// Label returns "City, Country", falling back through town, village and
// county for the city part.
func (r ReverseResult) Label() string {
	a := r.Address
	city := a.City
	for _, alt := range []string{a.Town, a.Village, a.County} {
		if city != "" {
			break
		}
		city = alt
	}
	return geo.Label(city, a.Country)
}

// Reverse names the position at lat/lon.
func (c *NominatimClient) Reverse(ctx context.Context, lat, lon float64) (*ReverseResult, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("zoom", "10")
	params.Set("accept-language", "en")

	var result ReverseResult
	err := c.get(ctx, "/reverse", params, &result)
	metrics.Observe("nominatim_reverse", err)
	if err != nil {
		return nil, err
	}
	if result.Label() == "" {
		return nil, fmt.Errorf("reverse %f,%f: %w", lat, lon, models.ErrGeocodeNotFound)
	}
	return &result, nil
}

func (c *NominatimClient) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("nominatim %s: unexpected status: %s", path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("nominatim %s: %w: %v", path, models.ErrEmptyPayload, err)
	}
	return nil
}

// osmTypeLetter maps search osm_type values to the single letter /details
// expects.
func osmTypeLetter(osmType string) string {
	if osmType == "" {
		return ""
	}
	return strings.ToUpper(osmType[:1])
}
