// Package worldtides adapts the WorldTides v3 API as the live tide source.
// It is key-gated: the service constructs this client only when
// WORLDTIDES_API_KEY is set, and without it areas fall back to the synthetic
// tide model.
package worldtides

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

// Source is the attribution label for the WorldTides API.
const Source = "worldtides"

// stepSeconds is the sample spacing requested from the API. The bundle
// series is hourly, so anything finer would be thrown away.
const stepSeconds = 3600

// Client fetches predicted tide heights from the WorldTides v3 API.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a WorldTides client.
func NewClient(apiKey string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://www.worldtides.info/api/v3",
		metrics: metrics,
		logger:  logger,
	}
}

// FetchHeights returns hourly tide heights above chart datum for a
// coordinate, starting at start and spanning hours. WorldTides snaps the
// request to its nearest reference station and names it in the response;
// the name is carried through for source attribution.
func (c *Client) FetchHeights(ctx context.Context, lat, lon float64, start time.Time, hours int) (domain.TideForecast, error) {
	params := url.Values{
		"heights": {""},
		"lat":     {strconv.FormatFloat(lat, 'f', 4, 64)},
		"lon":     {strconv.FormatFloat(lon, 'f', 4, 64)},
		"key":     {c.apiKey},
		"start":   {strconv.FormatInt(start.Unix(), 10)},
		"length":  {strconv.Itoa(hours * stepSeconds)},
		"step":    {strconv.Itoa(stepSeconds)},
		"datum":   {"CD"},
	}

	reqStart := time.Now()
	payload, err := c.doRequest(ctx, c.baseURL+"?"+params.Encode())
	c.metrics.ProviderDuration.WithLabelValues(Source).Observe(time.Since(reqStart).Seconds())
	if err != nil {
		c.metrics.ProviderRequests.WithLabelValues(Source, "error").Inc()
		return domain.TideForecast{}, err
	}

	// WorldTides reports request-level failures inside a 200 body.
	if payload.Status != http.StatusOK {
		c.metrics.ProviderRequests.WithLabelValues(Source, "error").Inc()
		return domain.TideForecast{}, fmt.Errorf("worldtides API error: status %d: %s", payload.Status, payload.Error)
	}

	if len(payload.Heights) == 0 {
		c.metrics.ProviderRequests.WithLabelValues(Source, "empty").Inc()
		return domain.TideForecast{}, fmt.Errorf("worldtides returned no heights")
	}

	c.metrics.ProviderRequests.WithLabelValues(Source, "success").Inc()
	return payload.toTideForecast(), nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (heightsResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return heightsResponse{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return heightsResponse{}, fmt.Errorf("worldtides request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return heightsResponse{}, fmt.Errorf("worldtides API error: status %d: %s", resp.StatusCode, body)
	}

	var payload heightsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return heightsResponse{}, fmt.Errorf("decode worldtides response: %w", err)
	}
	return payload, nil
}

// WorldTides v3 response types.

type heightsResponse struct {
	Status  int           `json:"status"`
	Error   string        `json:"error"`
	Station string        `json:"station"`
	Heights []heightEntry `json:"heights"`
}

type heightEntry struct {
	Dt     int64   `json:"dt"`
	Height float64 `json:"height"`
}

func (r heightsResponse) toTideForecast() domain.TideForecast {
	n := len(r.Heights)
	f := domain.TideForecast{
		Source:      Source,
		StationName: r.Station,
		Times:       make([]time.Time, n),
		HeightM:     make([]*float64, n),
	}
	for i, e := range r.Heights {
		f.Times[i] = time.Unix(e.Dt, 0).UTC().Truncate(time.Hour)
		h := e.Height
		f.HeightM[i] = &h
	}
	return f
}
