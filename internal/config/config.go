package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all engine tunables. Everything is overridable from the
// environment; defaults match the production fleet.
type Config struct {
	// Server
	Port  string
	Debug bool

	// Database
	DBPath string

	// Cache store sizing
	CacheSize   int
	CacheMaxTTL time.Duration

	// Ingestion
	MaxAccuracyMeters float64
	RateLimit         int
	RateLimitWindow   time.Duration

	// Geocoding
	GeocodingBaseURL string
	GeocodingAPIKey  string

	// API surface
	APIRateLimit       int
	APIRateLimitWindow time.Duration

	// Analytics
	AnalyticsCacheTTL time.Duration
}

// Load reads configuration from the environment. A .env file is honored
// when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:               getEnv("PORT", ":8080"),
		Debug:              getEnvBool("DEBUG", false),
		DBPath:             getEnv("DB_PATH", "./data/tracking.db"),
		CacheSize:          getEnvInt("CACHE_SIZE", 100000),
		CacheMaxTTL:        getEnvDuration("CACHE_MAX_TTL", 24*time.Hour),
		MaxAccuracyMeters:  getEnvFloat("MAX_ACCURACY_METERS", 20),
		RateLimit:          getEnvInt("INGEST_RATE_LIMIT", 2),
		RateLimitWindow:    getEnvDuration("INGEST_RATE_WINDOW", 60*time.Second),
		GeocodingBaseURL:   getEnv("GEOCODING_BASE_URL", "https://maps.googleapis.com/maps/api"),
		GeocodingAPIKey:    getEnv("GEOCODING_API_KEY", ""),
		APIRateLimit:       getEnvInt("API_RATE_LIMIT", 100),
		APIRateLimitWindow: getEnvDuration("API_RATE_WINDOW", time.Minute),
		AnalyticsCacheTTL:  getEnvDuration("ANALYTICS_CACHE_TTL", time.Hour),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
