// Package app builds the object graph shared by the commands from a
// config.Config.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"discovery/internal/cache"
	"discovery/internal/chat"
	"discovery/internal/config"
	"discovery/internal/discovery"
	"discovery/internal/images"
	"discovery/internal/logger"
	"discovery/internal/storage"
	"discovery/pkg/backend"
	"discovery/pkg/location"
	"discovery/pkg/overpass"
	"discovery/pkg/wikipedia"
)

type App struct {
	Config    config.Config
	Log       *zap.Logger
	Backend   *backend.Client
	Locations *location.Resolver
	Cache     *cache.Cache
	Pipeline  *discovery.Pipeline
	Enricher  *discovery.Enricher
	Images    *images.Resolver
	Landmarks *discovery.LLMStrategy

	closers []func()
}

// New wires the upstream clients, the cache and its store, the discovery
// pipeline and the enricher.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	log = logger.OrNop(log)
	a := &App{Config: cfg, Log: log}

	var store cache.BlobStore
	if cfg.CacheEnabled {
		s, closer, err := openStore(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		store = s
		if closer != nil {
			a.closers = append(a.closers, closer)
		}
	}
	a.Cache = cache.New(ctx, store, cfg.CacheEnabled, cache.WithLogger(log.Named("cache")))

	a.Backend = backend.NewClient(cfg.BackendURL, cfg.DefaultModel)
	nominatim := location.NewNominatimClient(cfg.UserAgent, cfg.NominatimInterval)
	wiki := wikipedia.NewClient(cfg.UserAgent, cfg.CommonsInterval)
	a.Locations = location.NewResolver(nominatim, location.NewIPClient(), log.Named("location"))

	a.Landmarks = discovery.NewLLMStrategy(a.Backend, nominatim, a.Cache, log.Named("llm"))
	a.Pipeline = discovery.NewPipeline(a.Cache, log.Named("discovery"),
		discovery.NewStructuredStrategy(overpass.NewClient(cfg.UserAgent)),
		a.Landmarks,
	)

	chain := images.Chain(images.ChainConfig{
		Wiki:            wiki,
		GoogleKey:       cfg.GoogleCSEKey,
		GoogleEngineID:  cfg.GoogleCSEID,
		Generator:       a.Backend,
		GenerateEnabled: cfg.ImageGeneration,
		StockURL:        cfg.StockPhotoURL,
		Log:             log.Named("images"),
	})
	a.Images = images.NewResolver(a.Cache, log.Named("images"), chain...)
	describer := discovery.NewDescriber(a.Backend, wiki, cfg.DescriptionInterval)
	a.Enricher = discovery.NewEnricher(nominatim, describer, a.Images, log.Named("enrich"))
	return a, nil
}

// openStore returns the blob store selected by CACHE_STORE and a function
// releasing its connections, if any.
func openStore(ctx context.Context, cfg config.Config, log *zap.Logger) (cache.BlobStore, func(), error) {
	switch cfg.CacheStore {
	case config.StoreNone:
		return nil, nil, nil
	case config.StoreFile:
		s, err := storage.NewFileStore(cfg.CacheDir)
		return s, nil, err
	case config.StoreS3:
		s, err := storage.NewS3Service(cfg.MinIO, log.Named("s3"))
		if err != nil {
			return nil, nil, err
		}
		if err := s.EnsureBucket(ctx, ""); err != nil {
			return nil, nil, err
		}
		return s, nil, nil
	case config.StoreRedis:
		s, err := storage.NewRedisStore(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case config.StorePostgres:
		s, pool, err := storage.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return s, pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache store %q", cfg.CacheStore)
	}
}

// NewSession returns a discovery session sharing the app pipeline.
func (a *App) NewSession() *discovery.Session {
	return discovery.NewSession(a.Pipeline, a.Enricher, a.Log.Named("session"))
}

func (a *App) NewConversation() *chat.Conversation {
	return chat.NewConversation(a.Backend, a.Log.Named("chat"),
		chat.WithImages(a.Images),
		chat.WithLocator(a.Landmarks),
	)
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
