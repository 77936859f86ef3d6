package config

import (
	"os"
	"strconv"
	"time"

	"github.com/arvindri2005/Crypto-Tracker/internal/coingecko"
)

type Config struct {
	API             coingecko.Config
	StoragePath     string
	RefreshInterval time.Duration
	ChartMaxPoints  int
	SearchDebounce  time.Duration
	APIPort         string
	MetricsPort     string
}

func Load() *Config {
	return &Config{
		API: coingecko.Config{
			BaseURL: getEnv("COINGECKO_BASE_URL", coingecko.BaseURL),
			APIKey:  getEnv("COINGECKO_API_KEY", ""),
		},
		StoragePath:     getEnv("WATCHLIST_PATH", "data/watchlist.json"),
		RefreshInterval: time.Duration(getEnvInt("REFRESH_INTERVAL_SECONDS", 60)) * time.Second,
		ChartMaxPoints:  getEnvInt("CHART_MAX_POINTS", 400),
		SearchDebounce:  time.Duration(getEnvInt("SEARCH_DEBOUNCE_MS", 300)) * time.Millisecond,
		APIPort:         getEnv("API_PORT", "8090"),
		MetricsPort:     getEnv("METRICS_PORT", "8080"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
