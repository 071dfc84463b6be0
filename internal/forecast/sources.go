package forecast

import (
	"context"
	"time"

	"github.com/windwardlabs/regatta-forecast/internal/domain"
)

// WindSource supplies the hourly wind forecast for a coordinate.
type WindSource interface {
	FetchWind(ctx context.Context, lat, lon float64) (domain.WindForecast, error)
}

// WaveSource supplies the hourly sea-state forecast for a coordinate.
type WaveSource interface {
	FetchWaves(ctx context.Context, lat, lon float64) (domain.WaveForecast, error)
}

// TideSource supplies predicted tide heights for a coordinate, starting at
// start and spanning hours.
type TideSource interface {
	FetchHeights(ctx context.Context, lat, lon float64, start time.Time, hours int) (domain.TideForecast, error)
}

// StationResolver picks the tide station serving a race area. A nil ref
// with a nil error means no station applies and the synthetic model runs
// under the fallback identity.
type StationResolver interface {
	Resolve(ctx context.Context, area domain.RaceArea) (*domain.StationRef, error)
}

// Store is the KV substrate bundles are persisted to. Implementations
// return ErrNotFound for absent keys.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	DeleteByPrefix(ctx context.Context, prefix string) (int, error)
}

// Publisher emits an event for every successfully built bundle.
type Publisher interface {
	PublishBundle(ctx context.Context, bundle domain.AreaBundle) error
}
