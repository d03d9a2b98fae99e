package wikipedia

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"discovery/internal/models"
	"discovery/pkg/metrics"
)

const (
	commonsAPI  = "https://commons.wikimedia.org/w/api.php"
	wikidataAPI = "https://www.wikidata.org/w/api.php"
	filePathURL = "https://commons.wikimedia.org/wiki/Special:FilePath/"
)

type Client struct {
	httpClient *http.Client
	userAgent  string
	limiter    *rate.Limiter
}

// NewClient returns a client whose calls are spaced at least interval apart.
func NewClient(userAgent string, interval time.Duration) *Client {
	if userAgent == "" {
		userAgent = "LocalDiscoveryApp/1.0"
	}
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		userAgent:  userAgent,
		limiter:    rate.NewLimiter(rate.Every(interval), 1),
	}
}

func wikipediaAPI(lang string) string {
	if lang == "" {
		lang = "en"
	}
	return fmt.Sprintf("https://%s.wikipedia.org/w/api.php", lang)
}

// PageImage returns the original lead image of an article. Redirects are
// followed and the resolved title is reported. A missing page or an article
// without an image yields nil and no error.
func (c *Client) PageImage(ctx context.Context, lang, title string) (*PageImage, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("prop", "pageimages")
	params.Set("piprop", "original")
	params.Set("redirects", "1")
	params.Set("titles", title)

	var resp queryResponse
	err := c.get(ctx, wikipediaAPI(lang), params, &resp)
	metrics.Observe("wikipedia", err)
	if err != nil {
		return nil, fmt.Errorf("page image %q: %w", title, err)
	}
	for id, p := range resp.Query.Pages {
		if id == "-1" || len(p.Missing) > 0 || p.Original == nil || p.Original.Source == "" {
			continue
		}
		return &PageImage{Title: p.Title, URL: p.Original.Source}, nil
	}
	return nil, nil
}

// Extract returns the plain text introduction of an article.
func (c *Client) Extract(ctx context.Context, lang, title string) (string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("prop", "extracts")
	params.Set("exintro", "1")
	params.Set("explaintext", "1")
	params.Set("redirects", "1")
	params.Set("titles", title)

	var resp queryResponse
	err := c.get(ctx, wikipediaAPI(lang), params, &resp)
	metrics.Observe("wikipedia", err)
	if err != nil {
		return "", fmt.Errorf("extract %q: %w", title, err)
	}
	for id, p := range resp.Query.Pages {
		if id == "-1" || len(p.Missing) > 0 {
			continue
		}
		if text := strings.TrimSpace(p.Extract); text != "" {
			return text, nil
		}
	}
	return "", fmt.Errorf("extract %q: %w", title, models.ErrEmptyPayload)
}

// WikidataImage resolves the P18 (image) claim of an item into a Commons
// file URL. Items without the claim yield an empty string.
func (c *Client) WikidataImage(ctx context.Context, qid string) (string, error) {
	params := url.Values{}
	params.Set("action", "wbgetclaims")
	params.Set("format", "json")
	params.Set("entity", qid)
	params.Set("property", "P18")

	var resp claimsResponse
	err := c.get(ctx, wikidataAPI, params, &resp)
	metrics.Observe("wikidata", err)
	if err != nil {
		return "", fmt.Errorf("wikidata %s: %w", qid, err)
	}
	for _, claim := range resp.Claims["P18"] {
		if file, ok := claim.MainSnak.DataValue.Value.(string); ok && file != "" {
			return FilePathURL(file), nil
		}
	}
	return "", nil
}

// FilePathURL builds the redirecting Special:FilePath URL for a Commons file.
func FilePathURL(file string) string {
	file = strings.TrimPrefix(file, "File:")
	return filePathURL + url.PathEscape(strings.ReplaceAll(file, " ", "_"))
}

// SearchFiles runs a Commons full text search restricted to the File
// namespace.
func (c *Client) SearchFiles(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("list", "search")
	params.Set("srsearch", query)
	params.Set("srnamespace", "6")
	params.Set("srlimit", fmt.Sprint(limit))

	var resp queryResponse
	err := c.get(ctx, commonsAPI, params, &resp)
	metrics.Observe("commons", err)
	if err != nil {
		return nil, fmt.Errorf("commons search %q: %w", query, err)
	}
	return resp.Query.Search, nil
}

// FileURL returns the direct upload URL of a Commons file page.
func (c *Client) FileURL(ctx context.Context, fileTitle string) (string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("prop", "imageinfo")
	params.Set("iiprop", "url")
	params.Set("titles", fileTitle)

	var resp queryResponse
	err := c.get(ctx, commonsAPI, params, &resp)
	metrics.Observe("commons", err)
	if err != nil {
		return "", fmt.Errorf("commons file %q: %w", fileTitle, err)
	}
	for _, p := range resp.Query.Pages {
		if len(p.ImageInfo) > 0 && p.ImageInfo[0].URL != "" {
			return p.ImageInfo[0].URL, nil
		}
	}
	return "", nil
}

// PlainSnippet strips the search highlight markup from a snippet.
func PlainSnippet(snippet string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snippet))
	if err != nil {
		return snippet
	}
	return strings.TrimSpace(doc.Text())
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
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
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", models.ErrEmptyPayload, err)
	}
	return nil
}
