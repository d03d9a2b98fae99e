package location

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"discovery/internal/models"
)

func newTestNominatim(t *testing.T, handler http.HandlerFunc) *NominatimClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewNominatimClient("test-agent", time.Millisecond)
	c.baseURL = srv.URL
	return c
}

func TestSearch_SendsViewboxAndFeatureType(t *testing.T) {
	c := newTestNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		q := r.URL.Query()
		assert.Equal(t, "Louvre, Paris", q.Get("q"))
		assert.Equal(t, "10", q.Get("limit"))
		assert.Equal(t, "1", q.Get("bounded"))
		assert.Equal(t, "1.852200,49.356600,2.852200,48.356600", q.Get("viewbox"))
		assert.Empty(t, q.Get("featuretype"))
		_ = json.NewEncoder(w).Encode([]SearchResult{{Lat: "48.8606", Lon: "2.3376", OsmType: "way", OsmID: 1}})
	})

	results, err := c.Search(context.Background(), SearchParams{
		Query:   "Louvre, Paris",
		Limit:   10,
		Near:    &models.Coordinates{Lat: 48.8566, Lon: 2.3522},
		Radius:  0.5,
		Bounded: true,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)

	coords, err := results[0].Coordinates()
	require.NoError(t, err)
	assert.InDelta(t, 48.8606, coords.Lat, 1e-9)
	assert.InDelta(t, 2.3376, coords.Lon, 1e-9)
}

func TestSearch_EmptyIsNotFound(t *testing.T) {
	c := newTestNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("[]"))
	})
	_, err := c.Search(context.Background(), SearchParams{Query: "Nowhere"})
	assert.ErrorIs(t, err, models.ErrGeocodeNotFound)
}

func TestSearch_BadStatus(t *testing.T) {
	c := newTestNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	_, err := c.Search(context.Background(), SearchParams{Query: "Paris"})
	assert.Error(t, err)
}

func TestReverse_Label(t *testing.T) {
	c := newTestNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		_, _ = w.Write([]byte(`{"display_name":"x","address":{"town":"Giverny","country":"France"}}`))
	})
	rev, err := c.Reverse(context.Background(), 49.07, 1.53)
	require.NoError(t, err)
	assert.Equal(t, "Giverny, France", rev.Label())
}

func TestDetails_MergesCalculatedWikipedia(t *testing.T) {
	c := newTestNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/details", r.URL.Path)
		assert.Equal(t, "W", r.URL.Query().Get("osmtype"))
		assert.Equal(t, "42", r.URL.Query().Get("osmid"))
		_, _ = w.Write([]byte(`{"osm_type":"W","osm_id":42,"extratags":{"wikidata":"Q19675"},"calculated_wikipedia":"en:Louvre"}`))
	})
	d, err := c.Details(context.Background(), "way", 42)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"wikidata": "Q19675", "wikipedia": "en:Louvre"}, d.Tags())
}
