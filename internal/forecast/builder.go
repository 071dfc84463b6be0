// Package forecast builds, caches, and refreshes the per-area forecast
// bundles.
//
// A bundle reconciles independently fetched wind, wave, and tide data onto
// one hourly time base and derives the current readings race screens show.
// Wind is mandatory and fails the build; everything else degrades locally:
// waves to nil-filled columns, live tide to the synthetic harmonic model.
package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/windwardlabs/regatta-forecast/internal/domain"
	"github.com/windwardlabs/regatta-forecast/internal/observability"
)

// Builder assembles one AreaBundle per race area.
type Builder struct {
	wind        windFallback
	waves       WaveSource
	tides       TideSource // nil disables live tide predictions
	stations    StationResolver
	clock       clockwork.Clock
	trendWindow int
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// NewBuilder creates a Builder. windSources are tried in priority order;
// tides may be nil, in which case every bundle uses the synthetic model.
func NewBuilder(windSources []WindSource, waves WaveSource, tides TideSource, stations StationResolver, clock clockwork.Clock, trendWindow int, metrics *observability.Metrics, logger *slog.Logger) *Builder {
	return &Builder{
		wind:        windFallback{sources: windSources, logger: logger},
		waves:       waves,
		tides:       tides,
		stations:    stations,
		clock:       clock,
		trendWindow: trendWindow,
		metrics:     metrics,
		logger:      logger,
	}
}

// Build assembles a fresh bundle for one area: wind and waves fetched
// concurrently, tide resolved once the wind time base is known, current
// readings coalesced, metadata stamped.
func (b *Builder) Build(ctx context.Context, area domain.RaceArea) (domain.AreaBundle, error) {
	buildStart := time.Now()
	now := b.clock.Now().UTC()

	var (
		wind    domain.WindForecast
		waves   domain.WaveForecast
		waveErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		wind, err = b.wind.fetch(gctx, area.Lat, area.Lon)
		return err
	})
	g.Go(func() error {
		// Wave failures degrade the bundle, they never abort it.
		waves, waveErr = b.waves.FetchWaves(gctx, area.Lat, area.Lon)
		return nil
	})
	if err := g.Wait(); err != nil {
		b.metrics.BundleBuilds.WithLabelValues("error").Inc()
		return domain.AreaBundle{}, fmt.Errorf("build %s: %w", area.Key, err)
	}
	if waveErr != nil {
		b.logger.Warn("wave source failed, wave fields degrade to null",
			"area", area.Key, "error", waveErr)
	}

	series := assembleSeries(wind, waves, waveErr == nil)

	station, err := b.stations.Resolve(ctx, area)
	if err != nil {
		b.logger.Warn("tide station resolution failed, using synthetic model",
			"area", area.Key, "error", err)
		station = nil
	}
	tideSource, stationRef := b.fillTide(ctx, area, station, &series)

	bundle := domain.AreaBundle{
		AreaKey:     area.Key,
		AreaName:    area.Name,
		BuildID:     uuid.NewString(),
		GeneratedAt: now,
		Sources: domain.SourceAttribution{
			Wind:        wind.Source,
			Tide:        tideSource,
			TideStation: stationRef,
		},
		Hourly: series,
	}
	if waveErr == nil {
		bundle.Sources.Wave = waves.Source
	}
	b.deriveReadings(&bundle, now, stationRef.Code, tideSource)

	if err := bundle.Hourly.Validate(); err != nil {
		b.metrics.BundleBuilds.WithLabelValues("error").Inc()
		return domain.AreaBundle{}, fmt.Errorf("build %s: %w", area.Key, err)
	}

	b.metrics.BundleBuilds.WithLabelValues("success").Inc()
	b.metrics.BuildDuration.Observe(time.Since(buildStart).Seconds())
	b.logger.Info("bundle built",
		"area", area.Key,
		"build_id", bundle.BuildID,
		"wind_source", bundle.Sources.Wind,
		"tide_source", bundle.Sources.Tide,
		"tide_station", stationRef.Code,
	)
	return bundle, nil
}

// fillTide populates the tide column: live predictions when a station
// resolved and a live source is configured, otherwise the synthetic model
// evaluated on the wind time base. Returns the serving source name and the
// station identity for attribution.
func (b *Builder) fillTide(ctx context.Context, area domain.RaceArea, station *domain.StationRef, series *domain.HourlySeries) (string, domain.StationRef) {
	if station != nil && b.tides != nil && len(series.Times) > 0 {
		live, err := b.tides.FetchHeights(ctx, station.Lat, station.Lon, series.Times[0], len(series.Times))
		if err != nil {
			b.logger.Warn("live tide source failed, using synthetic model",
				"area", area.Key, "station", station.Code, "error", err)
		} else if heights := alignOnto(series.Times, live.Times, live.HeightM); hasSamples(heights) {
			b.logger.Debug("live tide served",
				"area", area.Key, "station", station.Code, "provider_station", live.StationName)
			series.TideHeightM = heights
			return live.Source, *station
		} else {
			b.logger.Warn("live tide returned nothing usable, using synthetic model",
				"area", area.Key, "station", station.Code)
		}
	}

	b.metrics.SyntheticTideFallback.Inc()
	ref := domain.FallbackStation()
	if station != nil {
		ref = *station
	}
	series.TideHeightM = domain.SyntheticTideSeries(ref.Code, series.Times)
	return domain.SyntheticTideSource, ref
}

// deriveReadings computes the five current readings from the assembled
// series. Window trends read the samples up to and including the current
// hour; tide instead probes the serving model at now and now+1h, which
// suits its smooth curve better than sampling discrete points.
func (b *Builder) deriveReadings(bundle *domain.AreaBundle, now time.Time, stationCode, tideSource string) {
	s := bundle.Hourly
	trendEnd := min(domain.CurrentIndex(s.Times, now)+1, len(s.Times))

	bundle.Wind = domain.WindReading{
		CurrentReading: domain.CurrentReading{
			Value: domain.CoalesceCurrent(s.WindSpeedKts, s.Times, now),
			Trend: domain.ClassifyTrend(s.WindSpeedKts[:trendEnd], b.trendWindow, domain.WindTrendEpsilonKts),
		},
		GustKts:      domain.CoalesceCurrent(s.WindGustKts, s.Times, now),
		DirectionDeg: domain.CoalesceCurrent(s.WindDirectionDeg, s.Times, now),
		Sources:      []string{bundle.Sources.Wind},
	}
	bundle.Wave = domain.WaveReading{
		CurrentReading: domain.CurrentReading{
			Value: domain.CoalesceCurrent(s.WaveHeightM, s.Times, now),
			Trend: domain.ClassifyTrend(s.WaveHeightM[:trendEnd], b.trendWindow, domain.WaveTrendEpsilonM),
		},
		PeriodS:      domain.CoalesceCurrent(s.WavePeriodS, s.Times, now),
		DirectionDeg: domain.CoalesceCurrent(s.WaveDirectionDeg, s.Times, now),
	}
	bundle.Tide = domain.CurrentReading{
		Value: domain.CoalesceCurrent(s.TideHeightM, s.Times, now),
		Trend: b.tideTrend(s, now, stationCode, tideSource),
	}
	bundle.Temperature = domain.CurrentReading{
		Value: domain.CoalesceCurrent(s.TemperatureC, s.Times, now),
		Trend: domain.ClassifyTrend(s.TemperatureC[:trendEnd], b.trendWindow, domain.TempTrendEpsilonC),
	}
	bundle.CloudCover = domain.CurrentReading{
		Value: domain.CoalesceCurrent(s.CloudCoverPct, s.Times, now),
		Trend: domain.ClassifyTrend(s.CloudCoverPct[:trendEnd], b.trendWindow, domain.CloudTrendEpsilonPct),
	}
}

// tideTrend classifies the tide direction from the serving model's values
// at the current hour and the next. Synthetic probes the harmonic function
// directly; live reads the two series slots, flat when either is missing.
func (b *Builder) tideTrend(s domain.HourlySeries, now time.Time, stationCode, tideSource string) domain.Trend {
	if tideSource == domain.SyntheticTideSource {
		h0 := domain.TideHeight(stationCode, now)
		h1 := domain.TideHeight(stationCode, now.Add(time.Hour))
		return domain.ClassifyDelta(h1-h0, domain.TideTrendEpsilonM)
	}

	idx := domain.CurrentIndex(s.Times, now)
	if idx+1 >= len(s.Times) || s.TideHeightM[idx] == nil || s.TideHeightM[idx+1] == nil {
		return domain.TrendFlat
	}
	return domain.ClassifyDelta(*s.TideHeightM[idx+1]-*s.TideHeightM[idx], domain.TideTrendEpsilonM)
}

// assembleSeries lays the wind forecast down as the bundle's time base and
// re-keys the wave columns onto it. Without waves the wave columns stay
// nil-filled at full length, preserving the parallel-array invariant.
func assembleSeries(wind domain.WindForecast, waves domain.WaveForecast, haveWaves bool) domain.HourlySeries {
	n := len(wind.Times)
	s := domain.HourlySeries{
		Times:            wind.Times,
		WindSpeedKts:     wind.SpeedKts,
		WindGustKts:      wind.GustKts,
		WindDirectionDeg: wind.DirectionDeg,
		TemperatureC:     wind.TemperatureC,
		CloudCoverPct:    wind.CloudCoverPct,
		WaveHeightM:      make([]*float64, n),
		WavePeriodS:      make([]*float64, n),
		WaveDirectionDeg: make([]*float64, n),
		TideHeightM:      make([]*float64, n),
	}
	if haveWaves {
		s.WaveHeightM = alignOnto(s.Times, waves.Times, waves.HeightM)
		s.WavePeriodS = alignOnto(s.Times, waves.Times, waves.PeriodS)
		s.WaveDirectionDeg = alignOnto(s.Times, waves.Times, waves.DirectionDeg)
	}
	return s
}

// alignOnto re-keys values from their native hourly timestamps onto the
// base time base. Hours the native series does not cover stay nil.
func alignOnto(base, times []time.Time, values []*float64) []*float64 {
	byHour := make(map[int64]*float64, len(times))
	for i, ts := range times {
		if i < len(values) {
			byHour[ts.UTC().Truncate(time.Hour).Unix()] = values[i]
		}
	}
	aligned := make([]*float64, len(base))
	for i, ts := range base {
		aligned[i] = byHour[ts.UTC().Truncate(time.Hour).Unix()]
	}
	return aligned
}

func hasSamples(values []*float64) bool {
	for _, v := range values {
		if v != nil {
			return true
		}
	}
	return false
}
