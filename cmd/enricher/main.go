package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"discovery/internal/app"
	"discovery/internal/config"
	"discovery/internal/keys"
	"discovery/internal/logger"
	"discovery/internal/models"
	"discovery/internal/service"
	"discovery/internal/storage"
	"discovery/pkg/graceful"
	"discovery/pkg/kafkaclient"
)

// The enricher listens for discoveries uploaded to the bucket, fills in
// descriptions and images and writes the result under the enriched prefix.
func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := graceful.Context(context.Background(), log)
	defer cancel()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to build app", zap.Error(err))
	}
	defer a.Close()

	s3, err := storage.NewS3Service(cfg.MinIO, log.Named("s3"))
	if err != nil {
		log.Fatal("failed to connect to storage", zap.Error(err))
	}

	log.Info("connecting to Kafka",
		zap.String("broker", cfg.Kafka.Broker),
		zap.String("topic", cfg.Kafka.Topic),
		zap.String("group", cfg.Kafka.GroupID))
	consumer := kafkaclient.NewKafkaConsumer(cfg.Kafka.Topic, cfg.Kafka.GroupID, cfg.Kafka.Broker, log.Named("kafka"))
	consumer.StartConsuming(ctx)
	defer consumer.Stop()

	iterator := service.NewIterator(consumer, func(ctx context.Context, _, key string) (*models.Discovery, error) {
		return s3.GetDiscoveryObject(ctx, key)
	}, keys.IsDiscovery, log.Named("events"))

	enriched := 0
	for obj := range iterator.Objects(ctx) {
		d := obj.Data
		n := a.Enricher.Enrich(ctx, d.Category, d.Location.Name, d.Places, nil)
		if err := s3.PutEnriched(ctx, *d); err != nil {
			log.Error("storing enriched discovery failed", zap.String("key", obj.Key), zap.Error(err))
			continue
		}
		enriched++
		log.Info("discovery enriched",
			zap.String("key", obj.Key),
			zap.String("location", d.Location.Name),
			zap.String("category", d.Category),
			zap.Int("places", n))
	}
	log.Info("enricher exiting", zap.Int("enriched", enriched))
}
