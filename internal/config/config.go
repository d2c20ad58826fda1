package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr        string
	CRDBDSN         string
	MongoURI        string
	RedisAddr       string
	RabbitURL       string
	PendingTTL      time.Duration
	FlightsCacheTTL time.Duration
	SweepInterval   time.Duration
	OTLPEndpoint    string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	return &Config{
		HTTPAddr:        envOr("HTTP_ADDR", ":8080"),
		CRDBDSN:         os.Getenv("CRDB_DSN"),
		MongoURI:        os.Getenv("MONGO_URI"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RabbitURL:       os.Getenv("RABBIT_URL"),
		PendingTTL:      durationOr("PENDING_TTL", 30*time.Minute),
		FlightsCacheTTL: durationOr("FLIGHTS_CACHE_TTL", 30*time.Second),
		SweepInterval:   durationOr("SWEEP_INTERVAL", time.Minute),
		OTLPEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d == 0 {
		return fallback
	}
	return d
}
