package images

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

const customSearchURL = "https://www.googleapis.com/customsearch/v1"

// GoogleImageSearch queries the Custom Search JSON API in image mode.
type GoogleImageSearch struct {
	Key        string
	EngineID   string
	httpClient *http.Client
	endpoint   string
}

func NewGoogleImageSearch(key, engineID string) *GoogleImageSearch {
	return &GoogleImageSearch{
		Key:        key,
		EngineID:   engineID,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		endpoint:   customSearchURL,
	}
}

func (*GoogleImageSearch) Name() string { return "google" }

func (g *GoogleImageSearch) Resolve(ctx context.Context, q Query) (string, bool, error) {
	if g.Key == "" || g.EngineID == "" {
		return "", false, nil
	}
	params := url.Values{}
	params.Set("key", g.Key)
	params.Set("cx", g.EngineID)
	params.Set("q", strings.TrimSpace(q.Name+" "+q.Location))
	params.Set("searchType", "image")
	params.Set("num", "3")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", false, err
	}
	resp, err := g.httpClient.Do(req)
	metrics.Observe("google_cse", err)
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", models.ErrTransport, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("custom search: unexpected status: %s", resp.Status)
	}

	var body struct {
		Items []struct {
			Link string `json:"link"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", false, fmt.Errorf("custom search: %w: %v", models.ErrEmptyPayload, err)
	}
	for _, item := range body.Items {
		if AcceptableURL(item.Link) {
			return item.Link, true, nil
		}
	}
	return "", false, nil
}

// ImageGenerator is the backend image endpoint.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// Generated asks the backend to draw the place.
type Generated struct{ Generator ImageGenerator }

func (Generated) Name() string { return "generated" }

func (s Generated) Resolve(ctx context.Context, q Query) (string, bool, error) {
	prompt := fmt.Sprintf("A beautiful photograph of %s", q.Name)
	if q.Location != "" {
		prompt += " in " + q.Location
	}
	u, err := s.Generator.GenerateImage(ctx, prompt)
	if err != nil {
		return "", false, err
	}
	return u, u != "", nil
}

var stockKeywords = map[string]string{
	"landmarks":     "landmark",
	"restaurants":   "restaurant",
	"cafes":         "cafe",
	"museums":       "museum",
	"parks":         "park",
	"shopping":      "shopping",
	"nightlife":     "nightlife",
	"entertainment": "theater",
	"hotels":        "hotel",
	"beaches":       "beach",
	"viewpoints":    "viewpoint",
	"historical":    "historic",
}

// Stock builds a generic stock photo URL from the category keyword. BaseURL
// may contain a {keyword} placeholder, otherwise the keyword is appended.
type Stock struct{ BaseURL string }

func (Stock) Name() string { return "stock" }

func (s Stock) Resolve(_ context.Context, q Query) (string, bool, error) {
	if s.BaseURL == "" {
		return "", false, nil
	}
	kw, ok := stockKeywords[q.Category]
	if !ok {
		kw = "landmark"
	}
	if strings.Contains(s.BaseURL, "{keyword}") {
		return strings.ReplaceAll(s.BaseURL, "{keyword}", url.QueryEscape(kw)), true, nil
	}
	return s.BaseURL + url.QueryEscape(kw), true, nil
}
