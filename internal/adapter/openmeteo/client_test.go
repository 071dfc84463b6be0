package openmeteo

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windwardlabs/regatta-forecast/internal/observability"
)

const (
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func testClient(baseURL string) *Client {
	return &Client{
		httpClient:    &http.Client{Timeout: 5 * time.Second},
		baseURL:       baseURL,
		forecastHours: 72,
		pastHours:     3,
		metrics:       testMetrics(),
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// forecastBody is a trimmed Open-Meteo response: three hourly slots with a
// null gust in the second, plus a current block observed at 10:12.
const forecastBody = `{
	"current": {
		"time": "2026-06-10T10:12",
		"temperature_2m": 18.4,
		"cloud_cover": 40,
		"wind_speed_10m": 14.8,
		"wind_direction_10m": 245,
		"wind_gusts_10m": 21.5
	},
	"hourly": {
		"time": ["2026-06-10T10:00", "2026-06-10T11:00", "2026-06-10T12:00"],
		"temperature_2m": [17.9, 18.1, 18.6],
		"cloud_cover": [35, 45, 50],
		"wind_speed_10m": [13.2, 14.1, 15.0],
		"wind_direction_10m": [240, 242, 250],
		"wind_gusts_10m": [19.0, null, 22.0]
	}
}`

func TestClient_FetchWind_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "kn", q.Get("wind_speed_unit"))
		assert.Equal(t, "UTC", q.Get("timezone"))
		assert.Equal(t, "72", q.Get("forecast_hours"))
		assert.Equal(t, "3", q.Get("past_hours"))
		assert.Equal(t, "52.1258", q.Get("latitude"))
		assert.Contains(t, q.Get("hourly"), "wind_speed_10m")
		assert.Contains(t, q.Get("current"), "wind_gusts_10m")

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(forecastBody))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	forecast, err := c.FetchWind(context.Background(), 52.1258, 4.2239)
	require.NoError(t, err)

	assert.Equal(t, Source, forecast.Source)
	require.Len(t, forecast.Times, 3)
	assert.Equal(t, time.Date(2026, 6, 10, 10, 0, 0, 0, time.UTC), forecast.Times[0])

	// The 10:12 observation overwrites the 10:00 model slot.
	require.NotNil(t, forecast.SpeedKts[0])
	assert.Equal(t, 14.8, *forecast.SpeedKts[0])
	require.NotNil(t, forecast.GustKts[0])
	assert.Equal(t, 21.5, *forecast.GustKts[0])
	require.NotNil(t, forecast.TemperatureC[0])
	assert.Equal(t, 18.4, *forecast.TemperatureC[0])

	// Later slots keep their model values.
	require.NotNil(t, forecast.SpeedKts[1])
	assert.Equal(t, 14.1, *forecast.SpeedKts[1])

	// JSON null stays nil, the column is not truncated.
	assert.Nil(t, forecast.GustKts[1])
	require.NotNil(t, forecast.GustKts[2])
	assert.Equal(t, 22.0, *forecast.GustKts[2])
}

func TestClient_FetchWind_NoCurrentBlock(t *testing.T) {
	body := `{
		"hourly": {
			"time": ["2026-06-10T10:00"],
			"temperature_2m": [17.9],
			"cloud_cover": [35],
			"wind_speed_10m": [13.2],
			"wind_direction_10m": [240],
			"wind_gusts_10m": [19.0]
		}
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	forecast, err := c.FetchWind(context.Background(), 52.1258, 4.2239)
	require.NoError(t, err)

	require.NotNil(t, forecast.SpeedKts[0])
	assert.Equal(t, 13.2, *forecast.SpeedKts[0])
}

func TestClient_FetchWind_EmptyHourly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"hourly":{"time":[]}}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.FetchWind(context.Background(), 52.1258, 4.2239)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no hourly data")
}

func TestClient_FetchWind_ColumnLengthMismatch(t *testing.T) {
	body := `{
		"hourly": {
			"time": ["2026-06-10T10:00", "2026-06-10T11:00"],
			"temperature_2m": [17.9, 18.1],
			"cloud_cover": [35, 45],
			"wind_speed_10m": [13.2],
			"wind_direction_10m": [240, 242],
			"wind_gusts_10m": [19.0, 20.0]
		}
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.FetchWind(context.Background(), 52.1258, 4.2239)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wind_speed_10m")
}

func TestClient_FetchWind_OmittedColumnIsAllNil(t *testing.T) {
	body := `{
		"hourly": {
			"time": ["2026-06-10T10:00", "2026-06-10T11:00"],
			"temperature_2m": [17.9, 18.1],
			"cloud_cover": [35, 45],
			"wind_speed_10m": [13.2, 14.1],
			"wind_direction_10m": [240, 242]
		}
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	forecast, err := c.FetchWind(context.Background(), 52.1258, 4.2239)
	require.NoError(t, err)

	require.Len(t, forecast.GustKts, 2)
	assert.Nil(t, forecast.GustKts[0])
	assert.Nil(t, forecast.GustKts[1])
}

func TestClient_FetchWind_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"reason":"Minutely API request limit exceeded"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.FetchWind(context.Background(), 52.1258, 4.2239)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestClient_FetchWind_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := &Client{
		httpClient:    &http.Client{Timeout: 50 * time.Millisecond},
		baseURL:       srv.URL,
		forecastHours: 72,
		metrics:       testMetrics(),
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	_, err := c.FetchWind(context.Background(), 52.1258, 4.2239)
	require.Error(t, err)
}
