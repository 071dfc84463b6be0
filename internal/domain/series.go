package domain

import (
	"fmt"
	"time"
)

// Trend classifies the short-window direction of a metric.
type Trend string

const (
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
	TrendFlat    Trend = "flat"
)

// HourlySeries is the bundle's common hourly time base with one parallel
// column per metric. Invariant: every column has exactly len(Times) slots;
// missing samples are nil, never zero, and arrays are never truncated.
type HourlySeries struct {
	Times []time.Time `json:"times"`

	WindSpeedKts     []*float64 `json:"wind_speed_kts"`
	WindGustKts      []*float64 `json:"wind_gust_kts"`
	WindDirectionDeg []*float64 `json:"wind_direction_deg"`
	WaveHeightM      []*float64 `json:"wave_height_m"`
	WavePeriodS      []*float64 `json:"wave_period_s"`
	WaveDirectionDeg []*float64 `json:"wave_direction_deg"`
	TideHeightM      []*float64 `json:"tide_height_m"`
	TemperatureC     []*float64 `json:"temperature_c"`
	CloudCoverPct    []*float64 `json:"cloud_cover_pct"`
}

// Validate checks the parallel-array invariant: every metric column must
// have exactly one slot per timestamp.
func (s HourlySeries) Validate() error {
	n := len(s.Times)
	columns := []struct {
		name   string
		values []*float64
	}{
		{"wind_speed_kts", s.WindSpeedKts},
		{"wind_gust_kts", s.WindGustKts},
		{"wind_direction_deg", s.WindDirectionDeg},
		{"wave_height_m", s.WaveHeightM},
		{"wave_period_s", s.WavePeriodS},
		{"wave_direction_deg", s.WaveDirectionDeg},
		{"tide_height_m", s.TideHeightM},
		{"temperature_c", s.TemperatureC},
		{"cloud_cover_pct", s.CloudCoverPct},
	}
	for _, col := range columns {
		if len(col.values) != n {
			return fmt.Errorf("series column %s has %d samples, want %d", col.name, len(col.values), n)
		}
	}
	return nil
}

// CurrentReading is a single present-moment value for one metric, derived
// from the hourly series via the coalescer — never fetched independently.
// Value is nil when the whole coalescing window was empty.
type CurrentReading struct {
	Value *float64 `json:"value"`
	Trend Trend    `json:"trend"`
}

// WindReading is the current wind conditions. Sources names the providers
// whose data is blended into the wind fields; Confidence is populated only
// when more than one provider was reconciled.
type WindReading struct {
	CurrentReading
	GustKts      *float64 `json:"gust_kts,omitempty"`
	DirectionDeg *float64 `json:"direction_deg,omitempty"`
	Confidence   *float64 `json:"confidence,omitempty"`
	Sources      []string `json:"sources,omitempty"`
}

// WaveReading is the current sea state. Value (embedded) is significant
// wave height in meters.
type WaveReading struct {
	CurrentReading
	PeriodS      *float64 `json:"period_s,omitempty"`
	DirectionDeg *float64 `json:"direction_deg,omitempty"`
}

// WindForecast is the normalized output of a wind provider: a time-ordered
// hourly series around the current hour, extending through the provider's
// forecast horizon. All columns share len(Times).
type WindForecast struct {
	Source        string
	Times         []time.Time
	SpeedKts      []*float64
	GustKts       []*float64
	DirectionDeg  []*float64
	TemperatureC  []*float64
	CloudCoverPct []*float64
}

// WaveForecast is the normalized output of a marine wave provider.
type WaveForecast struct {
	Source       string
	Times        []time.Time
	HeightM      []*float64
	PeriodS      []*float64
	DirectionDeg []*float64
}

// TideForecast is the normalized output of a live tide-prediction provider.
type TideForecast struct {
	Source      string
	StationName string
	Times       []time.Time
	HeightM     []*float64
}
