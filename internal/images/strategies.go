package images

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"go.uber.org/zap"

	"discovery/internal/logger"
	"discovery/pkg/wikipedia"
)

// Wiki is the knowledge base the cross reference, title and Commons
// strategies query.
type Wiki interface {
	PageImage(ctx context.Context, lang, title string) (*wikipedia.PageImage, error)
	WikidataImage(ctx context.Context, qid string) (string, error)
	SearchFiles(ctx context.Context, query string, limit int) ([]wikipedia.SearchHit, error)
	FileURL(ctx context.Context, fileTitle string) (string, error)
}

var (
	imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg"}
	trustedHosts    = []string{"upload.wikimedia.org", "commons.wikimedia.org"}
	blockedHosts    = []string{"photos.google.com", "photos.app.goo.gl", "googleusercontent.com"}
)

func hostMatches(host, pattern string) bool {
	return host == pattern || strings.HasSuffix(host, "."+pattern)
}

// TaggedImage uses the image tag of the map element.
type TaggedImage struct{}

func (TaggedImage) Name() string { return "tag" }

func (TaggedImage) Resolve(_ context.Context, q Query) (string, bool, error) {
	raw := strings.TrimSpace(q.Tags["image"])
	if raw == "" {
		return "", false, nil
	}
	return raw, AcceptableURL(raw), nil
}

// AcceptableURL rejects auth-gated photo hosts and accepts URLs with an image
// extension or a trusted host.
func AcceptableURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, b := range blockedHosts {
		if hostMatches(host, b) {
			return false
		}
	}
	ext := strings.ToLower(path.Ext(u.Path))
	for _, e := range imageExtensions {
		if ext == e {
			return true
		}
	}
	for _, t := range trustedHosts {
		if hostMatches(host, t) {
			return true
		}
	}
	return hostMatches(host, "staticflickr.com")
}

// CrossReference follows the wikipedia tag, then the wikidata tag. A failed
// wikipedia lookup does not stop the wikidata one.
type CrossReference struct {
	Wiki Wiki
	Log  *zap.Logger
}

func (CrossReference) Name() string { return "cross-reference" }

func (s CrossReference) Resolve(ctx context.Context, q Query) (string, bool, error) {
	qid := q.Tags["wikidata"]
	if ref := q.Tags["wikipedia"]; ref != "" {
		lang, title := splitWikipediaTag(ref)
		img, err := s.Wiki.PageImage(ctx, lang, title)
		switch {
		case err != nil && qid == "":
			return "", false, err
		case err != nil:
			logger.OrNop(s.Log).Debug("wikipedia tag lookup failed, trying wikidata",
				zap.String("place", q.Name), zap.String("wikipedia", ref), zap.Error(err))
		case img != nil:
			return img.URL, true, nil
		}
	}
	if qid != "" {
		u, err := s.Wiki.WikidataImage(ctx, qid)
		if err != nil {
			return "", false, err
		}
		return u, u != "", nil
	}
	return "", false, nil
}

// splitWikipediaTag splits "fr:Musée du Louvre" into language and title.
// Tags without a language prefix are English.
func splitWikipediaTag(ref string) (lang, title string) {
	if i := strings.Index(ref, ":"); i > 0 && i <= 3 {
		return ref[:i], strings.TrimSpace(ref[i+1:])
	}
	return "en", ref
}

// ExactTitle looks the place name up as an article title.
type ExactTitle struct{ Wiki Wiki }

func (ExactTitle) Name() string { return "wikipedia" }

func (s ExactTitle) Resolve(ctx context.Context, q Query) (string, bool, error) {
	return pageImage(ctx, s.Wiki, q.Name)
}

// TitleWithLocation looks up "name, location".
type TitleWithLocation struct{ Wiki Wiki }

func (TitleWithLocation) Name() string { return "wikipedia-location" }

func (s TitleWithLocation) Resolve(ctx context.Context, q Query) (string, bool, error) {
	if q.Location == "" {
		return "", false, nil
	}
	return pageImage(ctx, s.Wiki, fmt.Sprintf("%s, %s", q.Name, q.Location))
}

func pageImage(ctx context.Context, wiki Wiki, query string) (string, bool, error) {
	img, err := wiki.PageImage(ctx, "en", query)
	if err != nil || img == nil {
		return "", false, err
	}
	return img.URL, TitleMatches(img.Title, query), nil
}

// TitleMatches reports whether either string contains the other, ignoring
// case. Redirects to unrelated articles fail this check.
func TitleMatches(title, query string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	q := strings.ToLower(strings.TrimSpace(query))
	if t == "" || q == "" {
		return false
	}
	return strings.Contains(t, q) || strings.Contains(q, t)
}

// CommonsSearch runs full text file searches on Wikimedia Commons.
type CommonsSearch struct{ Wiki Wiki }

func (CommonsSearch) Name() string { return "commons" }

func (s CommonsSearch) Resolve(ctx context.Context, q Query) (string, bool, error) {
	words := SignificantWords(q.Name)
	if len(words) == 0 {
		return "", false, nil
	}
	queries := []string{q.Name, q.Name + " landmark", q.Name + " building"}
	if q.Location != "" {
		queries = append([]string{q.Name + " " + q.Location}, queries...)
	}

	var lastErr error
	for _, query := range queries {
		hits, err := s.Wiki.SearchFiles(ctx, query, 3)
		if err != nil {
			lastErr = err
			continue
		}
		for _, hit := range hits {
			if !MatchesHalf(words, hit.Title+" "+wikipedia.PlainSnippet(hit.Snippet)) {
				continue
			}
			u, err := s.Wiki.FileURL(ctx, hit.Title)
			if err != nil {
				lastErr = err
				continue
			}
			if u != "" {
				return u, true, nil
			}
		}
	}
	return "", false, lastErr
}

// SignificantWords returns the lowercased words of s longer than three
// characters.
func SignificantWords(s string) []string {
	var out []string
	for _, w := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == ' ' || r == ',' || r == '-' || r == '\'' || r == '(' || r == ')'
	}) {
		if len([]rune(w)) > 3 {
			out = append(out, w)
		}
	}
	return out
}

// MatchesHalf reports whether at least half of words occur in text.
func MatchesHalf(words []string, text string) bool {
	if len(words) == 0 {
		return false
	}
	text = strings.ToLower(text)
	found := 0
	for _, w := range words {
		if strings.Contains(text, w) {
			found++
		}
	}
	return found*2 >= len(words)
}
