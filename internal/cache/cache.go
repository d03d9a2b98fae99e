// Package cache keeps recommendations, image lookups and geocodes for a
// fixed TTL and persists the whole cache as one blob after every write.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"discovery/internal/keys"
	"discovery/internal/logger"
	"discovery/internal/models"
	"discovery/internal/storage"
	"discovery/pkg/metrics"
)

// TTL applies to every namespace.
const TTL = 30 * time.Minute

// FallbackImage marks a place whose image chain found nothing.
const FallbackImage = "FALLBACK"

const (
	nsRecommendations = "recommendations"
	nsImages          = "images"
	nsGeocoding       = "geocoding"
)

type BlobStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

type recommendationEntry struct {
	Data      []*models.Place `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

type imageEntry struct {
	URL       string `json:"url"`
	Timestamp int64  `json:"timestamp"`
}

type geocodeEntry struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Timestamp int64   `json:"timestamp"`
}

type snapshot struct {
	Recommendations map[string]recommendationEntry `json:"recommendations"`
	Images          map[string]imageEntry          `json:"images"`
	Geocoding       map[string]geocodeEntry        `json:"geocoding"`
}

func emptySnapshot() snapshot {
	return snapshot{
		Recommendations: map[string]recommendationEntry{},
		Images:          map[string]imageEntry{},
		Geocoding:       map[string]geocodeEntry{},
	}
}

type Cache struct {
	mu      sync.RWMutex
	saveMu  sync.Mutex
	data    snapshot
	store   BlobStore
	enabled bool
	now     func() time.Time
	log     *zap.Logger
}

type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Cache) { c.log = logger.OrNop(log) }
}

// New returns a cache backed by store, which may be nil for a memory only
// cache. A disabled cache misses every lookup and ignores every write.
func New(ctx context.Context, store BlobStore, enabled bool, opts ...Option) *Cache {
	c := &Cache{
		data:    emptySnapshot(),
		store:   store,
		enabled: enabled,
		now:     time.Now,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if enabled && store != nil {
		c.load(ctx)
	}
	return c
}

func (c *Cache) Enabled() bool { return c.enabled }

func (c *Cache) load(ctx context.Context) {
	raw, err := c.store.Load(ctx, keys.CacheBlob)
	if errors.Is(err, storage.ErrNotFound) {
		return
	}
	if err != nil {
		c.log.Warn("failed to load cache", zap.Error(err))
		return
	}
	var loaded snapshot
	if err := json.Unmarshal(raw, &loaded); err != nil {
		c.log.Warn("discarding unreadable cache blob", zap.Error(err))
		return
	}
	loaded = mergeEmpty(loaded)
	c.data = loaded
	c.log.Info("cache loaded",
		zap.Int("recommendations", len(loaded.Recommendations)),
		zap.Int("images", len(loaded.Images)),
		zap.Int("geocoding", len(loaded.Geocoding)))
}

func mergeEmpty(s snapshot) snapshot {
	e := emptySnapshot()
	if s.Recommendations != nil {
		e.Recommendations = s.Recommendations
	}
	if s.Images != nil {
		e.Images = s.Images
	}
	if s.Geocoding != nil {
		e.Geocoding = s.Geocoding
	}
	return e
}

func (c *Cache) valid(ts int64) bool {
	return c.now().Sub(time.UnixMilli(ts)) < TTL
}

func (c *Cache) record(namespace string, found, valid bool) bool {
	result := "hit"
	switch {
	case !found:
		result = "miss"
	case !valid:
		result = "expired"
	}
	metrics.CacheLookups.WithLabelValues(namespace, result).Inc()
	return found && valid
}

// Recommendations returns a copy of the places cached under key.
func (c *Cache) Recommendations(key string) ([]*models.Place, bool) {
	if !c.enabled {
		return nil, false
	}
	c.mu.RLock()
	e, ok := c.data.Recommendations[key]
	c.mu.RUnlock()
	if !c.record(nsRecommendations, ok, ok && c.valid(e.Timestamp)) {
		return nil, false
	}
	out := make([]*models.Place, len(e.Data))
	for i, p := range e.Data {
		out[i] = p.Clone()
	}
	return out, true
}

func (c *Cache) SetRecommendations(ctx context.Context, key string, places []*models.Place) {
	if !c.enabled {
		return
	}
	data := make([]*models.Place, len(places))
	for i, p := range places {
		data[i] = p.Clone()
	}
	c.mu.Lock()
	c.data.Recommendations[key] = recommendationEntry{Data: data, Timestamp: c.now().UnixMilli()}
	c.mu.Unlock()
	c.persist(ctx)
}

// Image returns the cached image URL of a place, FallbackImage included.
func (c *Cache) Image(name string) (string, bool) {
	if !c.enabled {
		return "", false
	}
	c.mu.RLock()
	e, ok := c.data.Images[name]
	c.mu.RUnlock()
	if !c.record(nsImages, ok, ok && c.valid(e.Timestamp)) {
		return "", false
	}
	return e.URL, true
}

func (c *Cache) SetImage(ctx context.Context, name, url string) {
	if !c.enabled {
		return
	}
	c.mu.Lock()
	c.data.Images[name] = imageEntry{URL: url, Timestamp: c.now().UnixMilli()}
	c.mu.Unlock()
	c.persist(ctx)
}

func (c *Cache) Geocode(query string) (models.Coordinates, bool) {
	if !c.enabled {
		return models.Coordinates{}, false
	}
	c.mu.RLock()
	e, ok := c.data.Geocoding[query]
	c.mu.RUnlock()
	if !c.record(nsGeocoding, ok, ok && c.valid(e.Timestamp)) {
		return models.Coordinates{}, false
	}
	return models.Coordinates{Lat: e.Lat, Lon: e.Lon}, true
}

func (c *Cache) SetGeocode(ctx context.Context, query string, coords models.Coordinates) {
	if !c.enabled {
		return
	}
	c.mu.Lock()
	c.data.Geocoding[query] = geocodeEntry{Lat: coords.Lat, Lon: coords.Lon, Timestamp: c.now().UnixMilli()}
	c.mu.Unlock()
	c.persist(ctx)
}

// persist writes the full cache. Failures are logged and the in-memory
// state stays authoritative.
func (c *Cache) persist(ctx context.Context) {
	if c.store == nil {
		return
	}
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	c.mu.RLock()
	raw, err := json.Marshal(c.data)
	c.mu.RUnlock()
	if err != nil {
		c.log.Error("failed to encode cache", zap.Error(err))
		return
	}
	if err := c.store.Save(ctx, keys.CacheBlob, raw); err != nil {
		c.log.Error("failed to save cache", zap.Error(err))
	}
}
