package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	httpadapter "github.com/windwardlabs/regatta-forecast/internal/adapter/http"
	"github.com/windwardlabs/regatta-forecast/internal/adapter/memstore"
	"github.com/windwardlabs/regatta-forecast/internal/adapter/openmeteo"
	"github.com/windwardlabs/regatta-forecast/internal/adapter/openweather"
	redisstore "github.com/windwardlabs/regatta-forecast/internal/adapter/redis"
	"github.com/windwardlabs/regatta-forecast/internal/adapter/stream"
	"github.com/windwardlabs/regatta-forecast/internal/adapter/worldtides"
	"github.com/windwardlabs/regatta-forecast/internal/areas"
	"github.com/windwardlabs/regatta-forecast/internal/config"
	"github.com/windwardlabs/regatta-forecast/internal/forecast"
	"github.com/windwardlabs/regatta-forecast/internal/observability"
	"github.com/windwardlabs/regatta-forecast/internal/stations"
)

func main() {
	// A local .env is a development convenience; absence is normal.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.ParseLevel(cfg.LogLevel), cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	registry, err := areas.Load(cfg.AreasFile)
	if err != nil {
		logger.Error("failed to load race areas", "error", err)
		os.Exit(1)
	}
	logger.Info("race areas loaded", "count", registry.Len())

	catalog, err := stations.Open(cfg.StationsDBPath)
	if err != nil {
		logger.Error("failed to open tide station catalog", "error", err)
		os.Exit(1)
	}
	resolver := stations.NewResolver(catalog, cfg.NearestStationFallback, cfg.MaxStationDistanceKm, logger)

	// Providers fetch cfg.TrendWindow past hours on top of the forecast
	// horizon, so the trend window ends at the current hour.
	windSources := []forecast.WindSource{
		openmeteo.NewClient(cfg.ProviderTimeout, cfg.ForecastHours, cfg.TrendWindow, metrics, logger),
	}
	if cfg.OpenWeatherEnabled {
		windSources = append(windSources, openweather.NewClient(cfg.OpenWeatherAPIKey, cfg.ProviderTimeout, cfg.ForecastHours, metrics, logger))
		logger.Info("openweather wind fallback enabled")
	} else {
		logger.Info("openweather wind fallback disabled")
	}
	waves := openmeteo.NewMarineClient(cfg.ProviderTimeout, cfg.ForecastHours, cfg.TrendWindow, metrics, logger)

	var tides forecast.TideSource
	if cfg.WorldTidesEnabled {
		tides = worldtides.NewClient(cfg.WorldTidesAPIKey, cfg.ProviderTimeout, metrics, logger)
		logger.Info("worldtides live predictions enabled")
	} else {
		logger.Info("worldtides disabled, tide columns use the synthetic model")
	}

	var (
		store      forecast.Store
		closeStore func() error
	)
	if cfg.RedisAddr != "" {
		rs, err := redisstore.NewStore(cfg.RedisAddr)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		store, closeStore = rs, rs.Close
		logger.Info("redis bundle store enabled", "addr", cfg.RedisAddr)
	} else {
		ms := memstore.NewStore()
		store, closeStore = ms, ms.Close
		logger.Info("in-memory bundle store enabled")
	}

	var (
		publisher      forecast.Publisher
		closePublisher func() error
	)
	if cfg.KafkaEnabled {
		p := stream.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, metrics, logger)
		publisher, closePublisher = p, p.Close
		logger.Info("bundle event stream enabled", "topic", cfg.KafkaTopic)
	} else {
		logger.Info("bundle event stream disabled")
	}

	builder := forecast.NewBuilder(windSources, waves, tides, resolver, clock, cfg.TrendWindow, metrics, logger)
	cache := forecast.NewCache(store, builder, publisher, clock, cfg.CacheTTL, metrics, logger)
	refresher := forecast.NewRefresher(registry.All(), cache, clock, cfg.RefreshInterval, cfg.RefreshConcurrency, metrics, logger)

	srv := httpadapter.NewServer(cfg.HTTPAddr, registry, cache, refresher, refresher, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Warm the cache, then keep refreshing if an interval is configured.
	go func() {
		if err := refresher.Run(ctx); err != nil {
			logger.Error("refresher error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if closePublisher != nil {
		if err := closePublisher(); err != nil {
			logger.Error("event publisher close error", "error", err)
		}
	}
	if err := closeStore(); err != nil {
		logger.Error("bundle store close error", "error", err)
	}
	if err := catalog.Close(); err != nil {
		logger.Error("station catalog close error", "error", err)
	}

	logger.Info("shutdown complete")
}
