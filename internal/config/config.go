package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Bundle cache. RedisAddr empty means the in-memory store.
	CacheTTL  time.Duration
	RedisAddr string

	// Race areas and tide stations.
	AreasFile              string
	StationsDBPath         string
	NearestStationFallback bool
	MaxStationDistanceKm   float64

	// Forecast providers.
	ProviderTimeout time.Duration
	ForecastHours   int
	TrendWindow     int

	// Optional upstreams, enabled by their API keys.
	OpenWeatherAPIKey  string
	OpenWeatherEnabled bool
	WorldTidesAPIKey   string
	WorldTidesEnabled  bool

	// Bundle event stream, enabled when brokers are set.
	KafkaBrokers []string
	KafkaTopic   string
	KafkaEnabled bool

	// Periodic refresh. Zero interval means on-demand rebuilds only.
	RefreshInterval    time.Duration
	RefreshConcurrency int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s", false)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parseDuration("CACHE_TTL", "10m", false)
	if err != nil {
		return nil, err
	}
	providerTimeout, err := parseDuration("PROVIDER_TIMEOUT", "10s", false)
	if err != nil {
		return nil, err
	}
	refreshInterval, err := parseDuration("REFRESH_INTERVAL", "0", true)
	if err != nil {
		return nil, err
	}

	forecastHours, err := parseIntInRange("FORECAST_HOURS", 72, 6, 240)
	if err != nil {
		return nil, err
	}
	trendWindow, err := parseIntInRange("TREND_WINDOW", 3, 2, 24)
	if err != nil {
		return nil, err
	}
	refreshConcurrency, err := parseIntInRange("REFRESH_CONCURRENCY", 4, 1, 32)
	if err != nil {
		return nil, err
	}
	maxDistance, err := parsePositiveFloat("MAX_STATION_DISTANCE_KM", 150)
	if err != nil {
		return nil, err
	}
	nearestFallback, err := parseBool("NEAREST_STATION_FALLBACK", true)
	if err != nil {
		return nil, err
	}

	openWeatherKey := os.Getenv("OPENWEATHER_API_KEY")
	worldTidesKey := os.Getenv("WORLDTIDES_API_KEY")
	brokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))

	return &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		CacheTTL:  cacheTTL,
		RedisAddr: os.Getenv("REDIS_ADDR"),

		AreasFile:              os.Getenv("AREAS_FILE"),
		StationsDBPath:         envOrDefault("STATIONS_DB_PATH", "data/stations.db"),
		NearestStationFallback: nearestFallback,
		MaxStationDistanceKm:   maxDistance,

		ProviderTimeout: providerTimeout,
		ForecastHours:   forecastHours,
		TrendWindow:     trendWindow,

		OpenWeatherAPIKey:  openWeatherKey,
		OpenWeatherEnabled: openWeatherKey != "",
		WorldTidesAPIKey:   worldTidesKey,
		WorldTidesEnabled:  worldTidesKey != "",

		KafkaBrokers: brokers,
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "forecast-bundles"),
		KafkaEnabled: len(brokers) > 0,

		RefreshInterval:    refreshInterval,
		RefreshConcurrency: refreshConcurrency,
	}, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseBrokers(s string) []string {
	if s == "" {
		return nil
	}
	var brokers []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			brokers = append(brokers, part)
		}
	}
	return brokers
}

func parseDuration(key, def string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}

func parseIntInRange(key string, def, lo, hi int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("invalid %s: want an integer in [%d, %d]", key, lo, hi)
	}
	return n, nil
}

func parsePositiveFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("invalid %s: want a positive number", key)
	}
	return f, nil
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: want true or false", key)
	}
	return b, nil
}
