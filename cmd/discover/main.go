package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"discovery/internal/app"
	"discovery/internal/config"
	"discovery/internal/discovery"
	"discovery/internal/logger"
	"discovery/internal/models"
	"discovery/internal/storage"
	"discovery/pkg/graceful"
	"discovery/pkg/location"
)

func main() {
	var (
		place      = flag.String("location", "", "city or country to search around")
		lat        = flag.Float64("lat", 0, "latitude, used with -lon when -location is empty")
		lon        = flag.Float64("lon", 0, "longitude, used with -lat when -location is empty")
		categories = flag.String("categories", discovery.DefaultCategory, "comma separated categories")
		walk       = flag.Float64("walk", 0, "walking time filter in minutes, 0 disables it")
		store      = flag.Bool("store", false, "upload each discovery to the discovery bucket")
		force      = flag.Bool("force", false, "with -store, rediscover categories already in the bucket")
		enrich     = flag.Bool("enrich", true, "wait for descriptions and images before printing")
	)
	flag.Parse()

	cfg := config.Load()
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := graceful.Context(context.Background(), log)
	defer cancel()

	start := time.Now()
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to build app", zap.Error(err))
	}
	defer a.Close()

	req := location.Request{Manual: *place}
	if *lat != 0 || *lon != 0 {
		req.Device = location.StaticDevice{Coords: &models.Coordinates{Lat: *lat, Lon: *lon}}
	} else {
		req.Device = location.StaticDevice{Err: models.ErrPositionUnavailable}
	}
	loc, err := a.Locations.Resolve(ctx, req)
	if err != nil {
		fmt.Fprintln(os.Stderr, models.Guidance(err))
		os.Exit(1)
	}
	fmt.Printf("Location: %s (%.4f, %.4f, %s)\n", loc.Name, loc.Coordinates.Lat, loc.Coordinates.Lon, loc.Source)

	var s3 *storage.S3Service
	if *store {
		if s3, err = storage.NewS3Service(cfg.MinIO, log.Named("s3")); err != nil {
			log.Fatal("failed to connect to storage", zap.Error(err))
		}
		if err := s3.EnsureBucket(ctx, ""); err != nil {
			log.Fatal("failed to prepare bucket", zap.Error(err))
		}
	}

	session := a.NewSession()
	defer session.Close()
	session.SetLocation(*loc)
	if _, err := session.Refilter(*walk); err != nil {
		log.Fatal("invalid walking filter", zap.Error(err))
	}

	found := make(chan models.Discovery)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if s3 != nil {
			s3.StoreDiscoveriesFromChannel(ctx, found)
			return
		}
		for range found {
		}
	}()

	for _, category := range strings.Split(*categories, ",") {
		category = strings.TrimSpace(category)
		if category == "" {
			continue
		}
		if s3 != nil && !*force {
			if stored := storedDiscovery(ctx, s3, loc.Name, category, log); stored != nil {
				fmt.Printf("\n%s: already stored as %s, use -force to rediscover\n", category, stored.ID)
				printPlaces(category, discovery.Displayed(stored.Places))
				continue
			}
		}
		places, err := session.Discover(ctx, category)
		if err != nil {
			fmt.Printf("\n%s: %s\n", category, models.Guidance(err))
			continue
		}
		if *enrich {
			session.Wait()
			places = discovery.Displayed(session.Places())
		}
		printPlaces(category, places)
		found <- models.Discovery{
			ID:        uuid.NewString(),
			Location:  *loc,
			Category:  category,
			Strategy:  session.Strategy(),
			Places:    session.Places(),
			CreatedAt: time.Now().UTC(),
		}
	}
	close(found)
	<-done

	fmt.Printf("\nFinished, took %s\n", time.Since(start).Round(time.Millisecond))
}

type discoveryGetter interface {
	GetDiscovery(ctx context.Context, location, category string) (*models.Discovery, error)
}

// storedDiscovery returns the discovery already in the bucket, or nil when
// there is none or it cannot be read.
func storedDiscovery(ctx context.Context, g discoveryGetter, location, category string, log *zap.Logger) *models.Discovery {
	d, err := g.GetDiscovery(ctx, location, category)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil
	case err != nil:
		log.Warn("failed to read stored discovery", zap.String("category", category), zap.Error(err))
		return nil
	}
	return d
}

func printPlaces(category string, places []*models.Place) {
	fmt.Printf("\n%s (%d)\n", category, len(places))
	for _, p := range places {
		fmt.Printf("%3d. %s  %.1f km, %.0f min walk\n", p.MarkerNumber, p.Name, p.DistanceKm, p.WalkingMinutes)
		if p.DescriptionLoaded {
			fmt.Printf("     %s\n", p.Description)
		}
		if p.Image != nil && p.Image.URL != "" {
			fmt.Printf("     image: %s (%s)\n", p.Image.URL, p.Image.Source)
		}
	}
}
