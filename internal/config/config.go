package config

import "time"

// Cache store kinds accepted by CACHE_STORE.
const (
	StoreFile     = "file"
	StoreS3       = "s3"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreNone     = "none"
)

type MinIO struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

type Kafka struct {
	Broker  string
	Topic   string
	GroupID string
}

type Config struct {
	BackendURL   string
	DefaultModel string
	UserAgent    string
	LogMode      string
	ServerPort   string

	CacheEnabled bool
	CacheStore   string
	CacheDir     string
	RedisAddr    string
	DatabaseURL  string
	MinIO        MinIO
	Kafka        Kafka

	GoogleCSEKey    string
	GoogleCSEID     string
	ImageGeneration bool
	StockPhotoURL   string

	NominatimInterval   time.Duration
	CommonsInterval     time.Duration
	DescriptionInterval time.Duration
}

// Load reads the configuration from the environment, after loading a .env
// file if one exists.
func Load() Config {
	LoadEnv()
	return FromEnv()
}

// FromEnv reads the configuration from the environment only.
func FromEnv() Config {
	return Config{
		BackendURL:   getEnv("BACKEND_URL", "http://localhost:5000"),
		DefaultModel: getEnv("DEFAULT_MODEL", ""),
		UserAgent:    getEnv("USER_AGENT", "LocalDiscoveryApp/1.0"),
		LogMode:      getEnv("LOG_MODE", "dev"),
		ServerPort:   getEnv("SERVER_PORT", "8080"),

		CacheEnabled: getBool("CACHE_ENABLED", false),
		CacheStore:   getEnv("CACHE_STORE", StoreFile),
		CacheDir:     getEnv("CACHE_DIR", ".cache"),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		MinIO: MinIO{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			UseSSL:    getBool("MINIO_USE_SSL", false),
			Bucket:    getEnv("DISCOVERY_BUCKET", "discoveries"),
		},
		Kafka: Kafka{
			Broker:  getEnv("KAFKA_BROKER", "localhost:9092"),
			Topic:   getEnv("KAFKA_TOPIC", "minio-events"),
			GroupID: getEnv("KAFKA_GROUP_ID", "discovery-enricher"),
		},

		GoogleCSEKey:    getEnv("GOOGLE_CSE_KEY", ""),
		GoogleCSEID:     getEnv("GOOGLE_CSE_ID", ""),
		ImageGeneration: getBool("IMAGE_GENERATION", false),
		StockPhotoURL:   getEnv("STOCK_PHOTO_URL", ""),

		NominatimInterval:   getDuration("NOMINATIM_INTERVAL", 250*time.Millisecond),
		CommonsInterval:     getDuration("COMMONS_INTERVAL", 100*time.Millisecond),
		DescriptionInterval: getDuration("DESCRIPTION_INTERVAL", 500*time.Millisecond),
	}
}
