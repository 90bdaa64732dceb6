package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DatabaseURL string

	// Kafka
	KafkaBrokers string
	SyncTopic    string

	// API Configuration
	APIPort string
	APIHost string

	// Distributor API
	StylesAPIURL   string
	ProductsAPIURL string
	CDNBaseURL     string
	APIUsername    string
	APIPassword    string
	RequestTimeout time.Duration
	CacheTTL       time.Duration

	// Sync behavior
	SyncIntervalMinutes  int
	DefaultMarginPercent float64
	PriceIncrement       float64

	// Environment
	Env      string
	LogLevel string
}

// MinSyncIntervalMinutes is the floor for the scheduled sync interval.
const MinSyncIntervalMinutes = 5

func Load() (*Config, error) {
	// Load .env file
	godotenv.Load()

	cfg := &Config{
		DatabaseURL:          getEnv("DATABASE_URL", "sqlite://stylesync.db"),
		KafkaBrokers:         getEnv("KAFKA_BROKERS", "localhost:9092"),
		SyncTopic:            getEnv("SYNC_TOPIC", "sync-events"),
		APIPort:              getEnv("API_PORT", "8080"),
		APIHost:              getEnv("API_HOST", "0.0.0.0"),
		StylesAPIURL:         getEnv("STYLES_API_URL", "https://api-ca.ssactivewear.com/v2/styles"),
		ProductsAPIURL:       getEnv("PRODUCTS_API_URL", "https://api-ca.ssactivewear.com/v2/products/"),
		CDNBaseURL:           getEnv("CDN_BASE_URL", "https://cdn.ssactivewear.com/"),
		APIUsername:          getEnv("SS_USERNAME", ""),
		APIPassword:          getEnv("SS_PASSWORD", ""),
		RequestTimeout:       time.Duration(getEnvAsInt("REQUEST_TIMEOUT_SECONDS", 15)) * time.Second,
		CacheTTL:             time.Duration(getEnvAsInt("CACHE_TTL_MINUTES", 10)) * time.Minute,
		SyncIntervalMinutes:  getEnvAsInt("SYNC_INTERVAL_MINUTES", 60),
		DefaultMarginPercent: getEnvAsFloat("DEFAULT_MARGIN_PERCENT", 50),
		PriceIncrement:       getEnvAsFloat("PRICE_INCREMENT", 0.25),
		Env:                  getEnv("ENV", "development"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
	}

	if cfg.SyncIntervalMinutes < MinSyncIntervalMinutes {
		cfg.SyncIntervalMinutes = MinSyncIntervalMinutes
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
