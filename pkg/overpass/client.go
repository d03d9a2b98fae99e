package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"discovery/internal/models"
	"discovery/pkg/metrics"
)

const interpreterURL = "https://overpass-api.de/api/interpreter"

type Client struct {
	httpClient *http.Client
	endpoint   string
	userAgent  string
}

func NewClient(userAgent string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		endpoint:   interpreterURL,
		userAgent:  userAgent,
	}
}

// Element is a node, way or relation returned by the interpreter. Ways and
// relations carry their position in Center.
type Element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat"`
	Lon    float64           `json:"lon"`
	Center *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"center,omitempty"`
	Tags map[string]string `json:"tags"`
}

func (e Element) Name() string {
	if n := e.Tags["name:en"]; n != "" {
		return n
	}
	return e.Tags["name"]
}

// Coordinates returns the element position and false when it has none.
func (e Element) Coordinates() (models.Coordinates, bool) {
	if e.Center != nil {
		return models.Coordinates{Lat: e.Center.Lat, Lon: e.Center.Lon}, true
	}
	if e.Lat == 0 && e.Lon == 0 {
		return models.Coordinates{}, false
	}
	return models.Coordinates{Lat: e.Lat, Lon: e.Lon}, true
}

type response struct {
	Elements []Element `json:"elements"`
}

// BuildQuery renders an Overpass QL query for named elements matching any of
// filters within radiusMeters of the point.
func BuildQuery(lat, lon float64, radiusMeters int, filters []Filter) string {
	var b strings.Builder
	b.WriteString("[out:json][timeout:25];\n(\n")
	around := fmt.Sprintf("(around:%d,%f,%f)", radiusMeters, lat, lon)
	for _, f := range filters {
		fmt.Fprintf(&b, "  nwr[%q~\"^(%s)$\"][\"name\"]%s;\n", f.Key, strings.Join(f.Values, "|"), around)
	}
	b.WriteString(");\nout center tags;")
	return b.String()
}

// Around returns named elements of the category within radiusMeters.
func (c *Client) Around(ctx context.Context, lat, lon float64, radiusMeters int, category string) ([]Element, error) {
	query := BuildQuery(lat, lon, radiusMeters, Filters(category))
	form := url.Values{}
	form.Set("data", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	metrics.Observe("overpass", err)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("overpass: unexpected status: %s", resp.Status)
	}
	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("overpass: %w: %v", models.ErrEmptyPayload, err)
	}
	return out.Elements, nil
}
