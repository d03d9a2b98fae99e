package wikipedia

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

type rewriteRoundTripper struct{ base *url.URL }

func (r rewriteRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone the request to avoid mutating the original
	c := new(http.Request)
	*c = *req
	// every upstream host is served by the test server, path and query are kept
	u := *req.URL
	c.URL = &u
	c.URL.Scheme = r.base.Scheme
	c.URL.Host = r.base.Host
	c.Host = r.base.Host
	return http.DefaultTransport.RoundTrip(c)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *[]*http.Request) {
	t.Helper()
	var seen []*http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r)
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	u, _ := url.Parse(server.URL)
	c := NewClient("test-agent", time.Millisecond)
	c.httpClient = &http.Client{Transport: rewriteRoundTripper{base: u}}
	return c, &seen
}

func TestClient_PageImage_TableDriven(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantNil   bool
		wantTitle string
		wantURL   string
	}{
		{
			name:      "resolves redirect and returns original",
			body:      `{"query":{"redirects":[{"from":"Louvre","to":"Louvre Museum"}],"pages":{"123":{"pageid":123,"title":"Louvre Museum","original":{"source":"https://upload.wikimedia.org/louvre.jpg"}}}}}`,
			wantTitle: "Louvre Museum",
			wantURL:   "https://upload.wikimedia.org/louvre.jpg",
		},
		{
			name:    "missing page",
			body:    `{"query":{"pages":{"-1":{"title":"Nope","missing":""}}}}`,
			wantNil: true,
		},
		{
			name:    "page without image",
			body:    `{"query":{"pages":{"5":{"pageid":5,"title":"Bare"}}}}`,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, seen := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})
			got, err := c.PageImage(context.Background(), "fr", "Louvre")
			if err != nil {
				t.Fatalf("PageImage error: %v", err)
			}
			req := (*seen)[0]
			if req.URL.Query().Get("redirects") != "1" {
				t.Errorf("expected redirects=1, got %s", req.URL.RawQuery)
			}
			if req.Header.Get("User-Agent") != "test-agent" {
				t.Errorf("missing user agent")
			}
			if tt.wantNil {
				if got != nil {
					t.Fatalf("expected nil, got %+v", got)
				}
				return
			}
			if got == nil || got.Title != tt.wantTitle || got.URL != tt.wantURL {
				t.Errorf("got %+v want title %q url %q", got, tt.wantTitle, tt.wantURL)
			}
		})
	}
}

func TestClient_Extract(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("prop") != "extracts" {
			t.Fatalf("unexpected prop: %s", r.URL.Query().Get("prop"))
		}
		_, _ = w.Write([]byte(`{"query":{"pages":{"1":{"title":"Louvre","extract":" The Louvre is an art museum. "}}}}`))
	})
	got, err := c.Extract(context.Background(), "en", "Louvre")
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if got != "The Louvre is an art museum." {
		t.Errorf("got %q", got)
	}
}

func TestClient_WikidataImage(t *testing.T) {
	c, seen := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{"claims": map[string]any{"P18": []any{
			map[string]any{"mainsnak": map[string]any{"datavalue": map[string]any{"value": "Louvre Museum Wikimedia Commons.jpg"}}},
		}}}
		_ = json.NewEncoder(w).Encode(resp)
	})
	got, err := c.WikidataImage(context.Background(), "Q19675")
	if err != nil {
		t.Fatalf("WikidataImage error: %v", err)
	}
	want := "https://commons.wikimedia.org/wiki/Special:FilePath/Louvre_Museum_Wikimedia_Commons.jpg"
	if got != want {
		t.Errorf("got %q want %q", got, want)
	}
	q := (*seen)[0].URL.Query()
	if q.Get("entity") != "Q19675" || q.Get("property") != "P18" {
		t.Errorf("unexpected query: %s", (*seen)[0].URL.RawQuery)
	}
}

func TestClient_SearchFilesAndFileURL(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("list") == "search":
			if q.Get("srnamespace") != "6" || q.Get("srlimit") != "3" {
				t.Fatalf("unexpected search query: %s", r.URL.RawQuery)
			}
			_, _ = w.Write([]byte(`{"query":{"search":[{"title":"File:Tour Eiffel.jpg","snippet":"the <span class=\"searchmatch\">Eiffel</span> tower"}]}}`))
		case q.Get("prop") == "imageinfo":
			_, _ = w.Write([]byte(`{"query":{"pages":{"9":{"title":"File:Tour Eiffel.jpg","imageinfo":[{"url":"https://upload.wikimedia.org/eiffel.jpg"}]}}}}`))
		default:
			t.Fatalf("unexpected request: %s", r.URL.RawQuery)
		}
	})

	hits, err := c.SearchFiles(context.Background(), "Eiffel Tower", 3)
	if err != nil || len(hits) != 1 {
		t.Fatalf("SearchFiles: hits=%v err=%v", hits, err)
	}
	if got := PlainSnippet(hits[0].Snippet); got != "the Eiffel tower" {
		t.Errorf("snippet: got %q", got)
	}
	u, err := c.FileURL(context.Background(), hits[0].Title)
	if err != nil {
		t.Fatalf("FileURL error: %v", err)
	}
	if u != "https://upload.wikimedia.org/eiffel.jpg" {
		t.Errorf("got %q", u)
	}
}

func TestClient_BadStatus(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	if _, err := c.PageImage(context.Background(), "en", "X"); err == nil {
		t.Fatal("expected error")
	}
}
