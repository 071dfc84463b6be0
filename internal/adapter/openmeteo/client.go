// Package openmeteo adapts the Open-Meteo forecast and marine APIs to the
// canonical forecast shapes. Open-Meteo is keyless, which makes it the
// default primary source.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/windwardlabs/regatta-forecast/internal/domain"
	"github.com/windwardlabs/regatta-forecast/internal/observability"
)

// Source is the attribution label for the Open-Meteo forecast API.
const Source = "open-meteo"

// timeLayout is Open-Meteo's ISO8601 timestamp format with timezone=UTC:
// no seconds, no zone suffix.
const timeLayout = "2006-01-02T15:04"

// Client fetches wind, temperature, and cloud cover from the Open-Meteo
// forecast API.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	forecastHours int
	pastHours     int
	metrics       *observability.Metrics
	logger        *slog.Logger
}

// NewClient creates an Open-Meteo forecast client. pastHours extends the
// series backwards from the current hour so trend classification and the
// previous-hour coalesce slot have real samples to read.
func NewClient(timeout time.Duration, forecastHours, pastHours int, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:       "https://api.open-meteo.com/v1/forecast",
		forecastHours: forecastHours,
		pastHours:     pastHours,
		metrics:       metrics,
		logger:        logger,
	}
}

// FetchWind returns the normalized hourly wind forecast for a coordinate.
// The series runs from pastHours behind the current hour through the
// forecast horizon, and the current-conditions block overwrites the
// current-hour slot, so the most recent observation wins over the model
// value for that hour.
func (c *Client) FetchWind(ctx context.Context, lat, lon float64) (domain.WindForecast, error) {
	params := url.Values{
		"latitude":        {formatCoord(lat)},
		"longitude":       {formatCoord(lon)},
		"current":         {"temperature_2m,cloud_cover,wind_speed_10m,wind_direction_10m,wind_gusts_10m"},
		"hourly":          {"temperature_2m,cloud_cover,wind_speed_10m,wind_direction_10m,wind_gusts_10m"},
		"wind_speed_unit": {"kn"},
		"timezone":        {"UTC"},
		"forecast_hours":  {strconv.Itoa(c.forecastHours)},
		"past_hours":      {strconv.Itoa(c.pastHours)},
	}

	start := time.Now()
	var payload forecastResponse
	err := doJSON(ctx, c.httpClient, Source, c.baseURL+"?"+params.Encode(), &payload)
	c.metrics.ProviderDuration.WithLabelValues(Source).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ProviderRequests.WithLabelValues(Source, "error").Inc()
		return domain.WindForecast{}, err
	}

	if len(payload.Hourly.Time) == 0 {
		c.metrics.ProviderRequests.WithLabelValues(Source, "empty").Inc()
		return domain.WindForecast{}, fmt.Errorf("open-meteo returned no hourly data")
	}

	forecast, err := payload.toWindForecast()
	if err != nil {
		c.metrics.ProviderRequests.WithLabelValues(Source, "error").Inc()
		return domain.WindForecast{}, err
	}

	c.metrics.ProviderRequests.WithLabelValues(Source, "success").Inc()
	return forecast, nil
}

// doJSON issues a GET and decodes the JSON body into target. Shared by the
// forecast and marine clients.
func doJSON(ctx context.Context, httpClient *http.Client, source, fullURL string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s API error: status %d: %s", source, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s response: %w", source, err)
	}
	return nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// parseTimes converts Open-Meteo timestamp strings to UTC time values.
func parseTimes(raw []string) ([]time.Time, error) {
	times := make([]time.Time, len(raw))
	for i, s := range raw {
		t, err := time.Parse(timeLayout, s)
		if err != nil {
			return nil, fmt.Errorf("parse hourly timestamp %q: %w", s, err)
		}
		times[i] = t
	}
	return times, nil
}

// column validates one metric array against the time base. A missing array
// normalizes to all-nil (the provider omitted the variable); a length
// mismatch is a malformed response.
func column(name string, values []*float64, n int) ([]*float64, error) {
	if values == nil {
		return make([]*float64, n), nil
	}
	if len(values) != n {
		return nil, fmt.Errorf("column %s has %d samples, want %d", name, len(values), n)
	}
	return values, nil
}

// Open-Meteo forecast API response types.

type forecastResponse struct {
	Current currentBlock `json:"current"`
	Hourly  hourlyBlock  `json:"hourly"`
}

type currentBlock struct {
	Time          string   `json:"time"`
	Temperature   *float64 `json:"temperature_2m"`
	CloudCover    *float64 `json:"cloud_cover"`
	WindSpeed     *float64 `json:"wind_speed_10m"`
	WindDirection *float64 `json:"wind_direction_10m"`
	WindGusts     *float64 `json:"wind_gusts_10m"`
}

type hourlyBlock struct {
	Time          []string   `json:"time"`
	Temperature   []*float64 `json:"temperature_2m"`
	CloudCover    []*float64 `json:"cloud_cover"`
	WindSpeed     []*float64 `json:"wind_speed_10m"`
	WindDirection []*float64 `json:"wind_direction_10m"`
	WindGusts     []*float64 `json:"wind_gusts_10m"`
}

func (r forecastResponse) toWindForecast() (domain.WindForecast, error) {
	times, err := parseTimes(r.Hourly.Time)
	if err != nil {
		return domain.WindForecast{}, err
	}
	n := len(times)

	speed, err := column("wind_speed_10m", r.Hourly.WindSpeed, n)
	if err != nil {
		return domain.WindForecast{}, err
	}
	gusts, err := column("wind_gusts_10m", r.Hourly.WindGusts, n)
	if err != nil {
		return domain.WindForecast{}, err
	}
	direction, err := column("wind_direction_10m", r.Hourly.WindDirection, n)
	if err != nil {
		return domain.WindForecast{}, err
	}
	temperature, err := column("temperature_2m", r.Hourly.Temperature, n)
	if err != nil {
		return domain.WindForecast{}, err
	}
	cloudCover, err := column("cloud_cover", r.Hourly.CloudCover, n)
	if err != nil {
		return domain.WindForecast{}, err
	}

	forecast := domain.WindForecast{
		Source:        Source,
		Times:         times,
		SpeedKts:      speed,
		GustKts:       gusts,
		DirectionDeg:  direction,
		TemperatureC:  temperature,
		CloudCoverPct: cloudCover,
	}
	r.Current.overlay(&forecast)
	return forecast, nil
}

// overlay writes the current-conditions observation into the matching
// current-hour slot of the forecast, when present.
func (b currentBlock) overlay(f *domain.WindForecast) {
	if b.Time == "" {
		return
	}
	t, err := time.Parse(timeLayout, b.Time)
	if err != nil {
		return
	}
	hour := t.Truncate(time.Hour)

	for i, ts := range f.Times {
		if !ts.Equal(hour) {
			continue
		}
		if b.WindSpeed != nil {
			f.SpeedKts[i] = b.WindSpeed
		}
		if b.WindGusts != nil {
			f.GustKts[i] = b.WindGusts
		}
		if b.WindDirection != nil {
			f.DirectionDeg[i] = b.WindDirection
		}
		if b.Temperature != nil {
			f.TemperatureC[i] = b.Temperature
		}
		if b.CloudCover != nil {
			f.CloudCoverPct[i] = b.CloudCover
		}
		return
	}
}
