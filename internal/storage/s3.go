package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"discovery/internal/config"
	"discovery/internal/keys"
	"discovery/internal/logger"
	"discovery/internal/models"
)

// S3Service is a client for S3-compatible storage bound to one bucket.
type S3Service struct {
	client *minio.Client
	bucket string
	log    *zap.Logger
	count  atomic.Int64
}

// NewS3Service connects to the MinIO server described by cfg.
func NewS3Service(cfg config.MinIO, log *zap.Logger) (*S3Service, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("missing one or more required environment variables: MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY")
	}

	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	log = logger.OrNop(log)
	log.Info("connected to MinIO", zap.String("endpoint", cfg.Endpoint), zap.String("bucket", cfg.Bucket))
	return &S3Service{client: minioClient, bucket: cfg.Bucket, log: log}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *S3Service) EnsureBucket(ctx context.Context, region string) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("error checking bucket existence: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return fmt.Errorf("make bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// Load reads a raw blob.
func (s *S3Service) Load(ctx context.Context, key string) ([]byte, error) {
	object, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	return data, nil
}

// Save writes a raw blob, replacing any previous version.
func (s *S3Service) Save(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(
		ctx,
		s.bucket,
		key,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"},
	)
	if err != nil {
		return fmt.Errorf("failed to store object in S3: %w", err)
	}
	return nil
}

// StoreDiscoveriesFromChannel stores every discovery read from the channel
// and returns once the channel is closed and all writes finished.
func (s *S3Service) StoreDiscoveriesFromChannel(ctx context.Context, discoveries <-chan models.Discovery) {
	var wg sync.WaitGroup

	for discovery := range discoveries {
		wg.Add(1)
		go func(d models.Discovery) {
			defer wg.Done()
			if err := s.PutDiscovery(ctx, d); err != nil {
				s.log.Error("storing discovery failed", zap.String("location", d.Location.Name), zap.String("category", d.Category), zap.Error(err))
				return
			}
			s.count.Add(1)
		}(discovery)
	}

	wg.Wait()
	s.log.Info("finished storing discoveries", zap.Int64("count", s.count.Load()))
}

// PutDiscovery writes a raw discovery under its canonical key.
func (s *S3Service) PutDiscovery(ctx context.Context, d models.Discovery) error {
	return s.putJSON(ctx, keys.Discovery(d), d)
}

// PutEnriched writes an enriched discovery next to the raw ones.
func (s *S3Service) PutEnriched(ctx context.Context, d models.Discovery) error {
	return s.putJSON(ctx, keys.Enriched(d), d)
}

func (s *S3Service) putJSON(ctx context.Context, key string, d models.Discovery) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal discovery to JSON: %w", err)
	}
	if err := s.Save(ctx, key, data); err != nil {
		return err
	}
	s.log.Debug("stored discovery", zap.String("bucket", s.bucket), zap.String("key", key), zap.Int("places", len(d.Places)))
	return nil
}

// GetDiscoveryObject retrieves and decodes the discovery stored at objectKey.
func (s *S3Service) GetDiscoveryObject(ctx context.Context, objectKey string) (*models.Discovery, error) {
	object, err := s.client.GetObject(ctx, s.bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer object.Close()

	var d models.Discovery
	if err := json.NewDecoder(object).Decode(&d); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to decode JSON from stream: %w", err)
	}
	return &d, nil
}

// GetDiscovery retrieves the raw discovery for a location and category.
func (s *S3Service) GetDiscovery(ctx context.Context, location, category string) (*models.Discovery, error) {
	key := keys.Discovery(models.Discovery{Location: models.Location{Name: location}, Category: category})
	d, err := s.GetDiscoveryObject(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return d, err
}
