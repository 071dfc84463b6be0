// Package openweather adapts the OpenWeatherMap One Call API as the
// secondary wind source. It is key-gated: the service constructs this
// client only when OPENWEATHER_API_KEY is set.
package openweather

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

// Source is the attribution label for the OpenWeatherMap One Call API.
const Source = "openweather"

// metersPerSecondToKnots converts the One Call metric wind unit to the
// canonical knots.
const metersPerSecondToKnots = 3600.0 / 1852.0

// Client fetches wind, temperature, and cloud cover from the One Call API.
type Client struct {
	apiKey        string
	httpClient    *http.Client
	baseURL       string
	forecastHours int
	metrics       *observability.Metrics
	logger        *slog.Logger
}

// NewClient creates an OpenWeatherMap One Call client.
func NewClient(apiKey string, timeout time.Duration, forecastHours int, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:       "https://api.openweathermap.org/data/3.0/onecall",
		forecastHours: forecastHours,
		metrics:       metrics,
		logger:        logger,
	}
}

// FetchWind returns the normalized hourly wind forecast for a coordinate.
// One Call serves at most 48 hourly slots; the result is trimmed to the
// configured horizon when longer.
func (c *Client) FetchWind(ctx context.Context, lat, lon float64) (domain.WindForecast, error) {
	params := url.Values{
		"lat":     {strconv.FormatFloat(lat, 'f', 4, 64)},
		"lon":     {strconv.FormatFloat(lon, 'f', 4, 64)},
		"appid":   {c.apiKey},
		"units":   {"metric"},
		"exclude": {"minutely,daily,alerts"},
	}

	start := time.Now()
	payload, err := c.doRequest(ctx, c.baseURL+"?"+params.Encode())
	c.metrics.ProviderDuration.WithLabelValues(Source).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ProviderRequests.WithLabelValues(Source, "error").Inc()
		return domain.WindForecast{}, err
	}

	if len(payload.Hourly) == 0 {
		c.metrics.ProviderRequests.WithLabelValues(Source, "empty").Inc()
		return domain.WindForecast{}, fmt.Errorf("openweather returned no hourly data")
	}

	if c.forecastHours > 0 && len(payload.Hourly) > c.forecastHours {
		payload.Hourly = payload.Hourly[:c.forecastHours]
	}

	c.metrics.ProviderRequests.WithLabelValues(Source, "success").Inc()
	return payload.toWindForecast(), nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (oneCallResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return oneCallResponse{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return oneCallResponse{}, fmt.Errorf("openweather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return oneCallResponse{}, fmt.Errorf("openweather API error: status %d: %s", resp.StatusCode, body)
	}

	var payload oneCallResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return oneCallResponse{}, fmt.Errorf("decode openweather response: %w", err)
	}
	return payload, nil
}

// knots converts a metric wind value to knots, preserving nil.
func knots(ms *float64) *float64 {
	if ms == nil {
		return nil
	}
	v := *ms * metersPerSecondToKnots
	return &v
}

// One Call API response types.

type oneCallResponse struct {
	Current oneCallEntry   `json:"current"`
	Hourly  []oneCallEntry `json:"hourly"`
}

type oneCallEntry struct {
	Dt        int64    `json:"dt"`
	Temp      *float64 `json:"temp"`
	Clouds    *float64 `json:"clouds"`
	WindSpeed *float64 `json:"wind_speed"`
	WindDeg   *float64 `json:"wind_deg"`
	WindGust  *float64 `json:"wind_gust"`
}

func (r oneCallResponse) toWindForecast() domain.WindForecast {
	n := len(r.Hourly)
	f := domain.WindForecast{
		Source:        Source,
		Times:         make([]time.Time, n),
		SpeedKts:      make([]*float64, n),
		GustKts:       make([]*float64, n),
		DirectionDeg:  make([]*float64, n),
		TemperatureC:  make([]*float64, n),
		CloudCoverPct: make([]*float64, n),
	}
	for i, h := range r.Hourly {
		f.Times[i] = time.Unix(h.Dt, 0).UTC().Truncate(time.Hour)
		f.SpeedKts[i] = knots(h.WindSpeed)
		f.GustKts[i] = knots(h.WindGust)
		f.DirectionDeg[i] = h.WindDeg
		f.TemperatureC[i] = h.Temp
		f.CloudCoverPct[i] = h.Clouds
	}

	// The current observation overwrites the matching hourly slot.
	if r.Current.Dt != 0 {
		hour := time.Unix(r.Current.Dt, 0).UTC().Truncate(time.Hour)
		for i, ts := range f.Times {
			if !ts.Equal(hour) {
				continue
			}
			if r.Current.WindSpeed != nil {
				f.SpeedKts[i] = knots(r.Current.WindSpeed)
			}
			if r.Current.WindGust != nil {
				f.GustKts[i] = knots(r.Current.WindGust)
			}
			if r.Current.WindDeg != nil {
				f.DirectionDeg[i] = r.Current.WindDeg
			}
			if r.Current.Temp != nil {
				f.TemperatureC[i] = r.Current.Temp
			}
			if r.Current.Clouds != nil {
				f.CloudCoverPct[i] = r.Current.Clouds
			}
			break
		}
	}
	return f
}
