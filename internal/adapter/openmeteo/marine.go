package openmeteo

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/windwardlabs/regatta-forecast/internal/domain"
	"github.com/windwardlabs/regatta-forecast/internal/observability"
)

// MarineSource is the attribution label for the Open-Meteo marine API.
const MarineSource = "open-meteo-marine"

// MarineClient fetches hourly wave conditions from the Open-Meteo marine
// API, which runs on a separate host from the forecast API.
type MarineClient struct {
	httpClient    *http.Client
	baseURL       string
	forecastHours int
	pastHours     int
	metrics       *observability.Metrics
	logger        *slog.Logger
}

// NewMarineClient creates an Open-Meteo marine client.
func NewMarineClient(timeout time.Duration, forecastHours, pastHours int, metrics *observability.Metrics, logger *slog.Logger) *MarineClient {
	return &MarineClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:       "https://marine-api.open-meteo.com/v1/marine",
		forecastHours: forecastHours,
		pastHours:     pastHours,
		metrics:       metrics,
		logger:        logger,
	}
}

// FetchWaves returns the normalized hourly wave forecast for a coordinate.
// Coastal grid cells often lack wave coverage; those samples arrive as JSON
// nulls and stay nil in the result.
func (c *MarineClient) FetchWaves(ctx context.Context, lat, lon float64) (domain.WaveForecast, error) {
	params := url.Values{
		"latitude":       {formatCoord(lat)},
		"longitude":      {formatCoord(lon)},
		"hourly":         {"wave_height,wave_period,wave_direction"},
		"timezone":       {"UTC"},
		"forecast_hours": {strconv.Itoa(c.forecastHours)},
		"past_hours":     {strconv.Itoa(c.pastHours)},
	}

	start := time.Now()
	var payload marineResponse
	err := doJSON(ctx, c.httpClient, MarineSource, c.baseURL+"?"+params.Encode(), &payload)
	c.metrics.ProviderDuration.WithLabelValues(MarineSource).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ProviderRequests.WithLabelValues(MarineSource, "error").Inc()
		return domain.WaveForecast{}, err
	}

	if len(payload.Hourly.Time) == 0 {
		c.metrics.ProviderRequests.WithLabelValues(MarineSource, "empty").Inc()
		return domain.WaveForecast{}, fmt.Errorf("open-meteo marine returned no hourly data")
	}

	forecast, err := payload.toWaveForecast()
	if err != nil {
		c.metrics.ProviderRequests.WithLabelValues(MarineSource, "error").Inc()
		return domain.WaveForecast{}, err
	}

	c.metrics.ProviderRequests.WithLabelValues(MarineSource, "success").Inc()
	return forecast, nil
}

// Open-Meteo marine API response types.

type marineResponse struct {
	Hourly marineHourly `json:"hourly"`
}

type marineHourly struct {
	Time          []string   `json:"time"`
	WaveHeight    []*float64 `json:"wave_height"`
	WavePeriod    []*float64 `json:"wave_period"`
	WaveDirection []*float64 `json:"wave_direction"`
}

func (r marineResponse) toWaveForecast() (domain.WaveForecast, error) {
	times, err := parseTimes(r.Hourly.Time)
	if err != nil {
		return domain.WaveForecast{}, err
	}
	n := len(times)

	height, err := column("wave_height", r.Hourly.WaveHeight, n)
	if err != nil {
		return domain.WaveForecast{}, err
	}
	period, err := column("wave_period", r.Hourly.WavePeriod, n)
	if err != nil {
		return domain.WaveForecast{}, err
	}
	direction, err := column("wave_direction", r.Hourly.WaveDirection, n)
	if err != nil {
		return domain.WaveForecast{}, err
	}

	return domain.WaveForecast{
		Source:       MarineSource,
		Times:        times,
		HeightM:      height,
		PeriodS:      period,
		DirectionDeg: direction,
	}, nil
}
