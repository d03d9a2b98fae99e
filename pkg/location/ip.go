package location

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"discovery/internal/models"
	"discovery/pkg/metrics"
)

// IPLocation is the subset of the ipapi.co response used as a GPS fallback.
type IPLocation struct {
	City        string  `json:"city"`
	CountryName string  `json:"country_name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Error       bool    `json:"error"`
	Reason      string  `json:"reason"`
}

type IPClient struct {
	httpClient *http.Client
	baseURL    string
}

func NewIPClient() *IPClient {
	return &IPClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    "https://ipapi.co",
	}
}

// Lookup geolocates ip, or the caller's own address when ip is empty.
func (c *IPClient) Lookup(ctx context.Context, ip string) (*IPLocation, error) {
	reqURL := c.baseURL + "/json/"
	if ip != "" {
		reqURL = fmt.Sprintf("%s/%s/json/", c.baseURL, ip)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	metrics.Observe("ipapi", err)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrTransport, err)
	}
	defer resp.Body.Close()

	var loc IPLocation
	if err := json.NewDecoder(resp.Body).Decode(&loc); err != nil {
		return nil, fmt.Errorf("ip lookup: %w: %v", models.ErrEmptyPayload, err)
	}
	if loc.Error {
		return nil, fmt.Errorf("ip lookup: %s: %w", loc.Reason, models.ErrLocationNotFound)
	}
	if loc.Latitude == 0 && loc.Longitude == 0 {
		return nil, fmt.Errorf("ip lookup: %w", models.ErrLocationNotFound)
	}
	return &loc, nil
}
