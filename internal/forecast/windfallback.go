package forecast

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/windwardlabs/regatta-forecast/internal/domain"
)

// windFallback tries wind sources in priority order. Each source serves the
// whole series or nothing: partial results never mix across providers, so
// the bundle's attribution names exactly the source that produced it.
type windFallback struct {
	sources []WindSource
	logger  *slog.Logger
}

func (w windFallback) fetch(ctx context.Context, lat, lon float64) (domain.WindForecast, error) {
	var lastErr error
	for _, src := range w.sources {
		forecast, err := src.FetchWind(ctx, lat, lon)
		if err != nil {
			w.logger.Warn("wind source failed", "error", err)
			lastErr = err
			continue
		}
		return forecast, nil
	}
	if lastErr == nil {
		return domain.WindForecast{}, fmt.Errorf("%w: no wind sources configured", ErrWeatherUnavailable)
	}
	return domain.WindForecast{}, fmt.Errorf("%w: %v", ErrWeatherUnavailable, lastErr)
}
