package stations

import (
	"context"
	"errors"
	"log/slog"

	"github.com/windwardlabs/regatta-forecast/internal/domain"
)

// Resolver maps a race area to the tide station that serves it: the area's
// static station code first, then (when permitted) the nearest catalog
// station within range.
type Resolver struct {
	catalog         *Catalog
	nearestFallback bool
	maxDistanceKm   float64
	logger          *slog.Logger
}

// NewResolver builds a resolver over the given catalog. maxDistanceKm
// bounds the nearest-station search; nearestFallback disables that search
// entirely when false.
func NewResolver(catalog *Catalog, nearestFallback bool, maxDistanceKm float64, logger *slog.Logger) *Resolver {
	return &Resolver{
		catalog:         catalog,
		nearestFallback: nearestFallback,
		maxDistanceKm:   maxDistanceKm,
		logger:          logger,
	}
}

// Resolve returns the station serving the area, or (nil, nil) when no
// station resolves — the caller then degrades to the synthetic fallback
// identity. Catalog transport failures are returned as errors; the caller
// treats them like a failed resolution but can log the cause.
func (r *Resolver) Resolve(ctx context.Context, area domain.RaceArea) (*domain.StationRef, error) {
	if area.TideStationCode != "" {
		ref, err := r.catalog.ByCode(ctx, area.TideStationCode)
		switch {
		case err == nil:
			return ref, nil
		case errors.Is(err, ErrStationNotFound):
			// A stale static mapping falls through to the nearest search.
			r.logger.Warn("static tide station missing from catalog",
				"area", area.Key,
				"station_code", area.TideStationCode,
			)
		default:
			return nil, err
		}
	}

	if !r.nearestFallback {
		return nil, nil
	}

	ref, err := r.catalog.Nearest(ctx, area.Lat, area.Lon, r.maxDistanceKm)
	if errors.Is(err, ErrStationNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ref, nil
}
