package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fptr(v float64) *float64 {
	return &v
}

// hourlyTimes builds n ascending hourly timestamps starting at start.
func hourlyTimes(start time.Time, n int) []time.Time {
	times := make([]time.Time, n)
	for i := range times {
		times[i] = start.Add(time.Duration(i) * time.Hour)
	}
	return times
}

func TestCurrentIndex(t *testing.T) {
	base := time.Date(2026, 6, 10, 10, 0, 0, 0, time.UTC)
	times := hourlyTimes(base, 4) // 10:00, 11:00, 12:00, 13:00

	tests := []struct {
		name     string
		now      time.Time
		expected int
	}{
		{"exact hour match", time.Date(2026, 6, 10, 11, 0, 0, 0, time.UTC), 1},
		{"mid-hour truncates down", time.Date(2026, 6, 10, 11, 45, 30, 0, time.UTC), 1},
		{"before all timestamps", time.Date(2026, 6, 10, 8, 0, 0, 0, time.UTC), 0},
		{"after all timestamps", time.Date(2026, 6, 10, 20, 0, 0, 0, time.UTC), 3},
		{"first slot", time.Date(2026, 6, 10, 10, 59, 59, 0, time.UTC), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CurrentIndex(times, tt.now))
		})
	}

	t.Run("empty series", func(t *testing.T) {
		assert.Equal(t, 0, CurrentIndex(nil, base))
	})

	t.Run("non-UTC now is normalized", func(t *testing.T) {
		cet := time.FixedZone("CET", 3600)
		now := time.Date(2026, 6, 10, 13, 30, 0, 0, cet) // 12:30 UTC
		assert.Equal(t, 2, CurrentIndex(times, now))
	})
}

func TestCoalesceCurrent(t *testing.T) {
	base := time.Date(2026, 6, 10, 10, 0, 0, 0, time.UTC)
	times := hourlyTimes(base, 4)

	tests := []struct {
		name     string
		values   []*float64
		now      time.Time
		expected *float64
	}{
		{
			"current hour present",
			[]*float64{fptr(1), fptr(2), fptr(3), fptr(4)},
			base.Add(time.Hour),
			fptr(2),
		},
		{
			"next-hour fallback",
			[]*float64{nil, nil, fptr(5), nil},
			base.Add(time.Hour),
			fptr(5),
		},
		{
			"previous-hour fallback",
			[]*float64{fptr(3), nil, nil, nil},
			base.Add(time.Hour),
			fptr(3),
		},
		{
			"all null in the 3-slot window",
			[]*float64{fptr(3), nil, nil, nil},
			base.Add(2 * time.Hour),
			nil,
		},
		{
			"window clipped at series start",
			[]*float64{nil, nil, fptr(7), fptr(8)},
			base.Add(-time.Hour),
			nil,
		},
		{
			"window clipped at series end",
			[]*float64{nil, nil, fptr(7), nil},
			base.Add(10 * time.Hour),
			fptr(7),
		},
		{
			"empty series",
			nil,
			base,
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CoalesceCurrent(tt.values, times, tt.now)
			if tt.expected == nil {
				assert.Nil(t, got)
				return
			}
			if assert.NotNil(t, got) {
				assert.Equal(t, *tt.expected, *got)
			}
		})
	}
}

func TestClassifyTrend(t *testing.T) {
	tests := []struct {
		name     string
		values   []*float64
		window   int
		epsilon  float64
		expected Trend
	}{
		{
			"rising",
			[]*float64{fptr(10), fptr(12), fptr(14)},
			3, WindTrendEpsilonKts,
			TrendRising,
		},
		{
			"falling",
			[]*float64{fptr(20), fptr(18), fptr(16)},
			3, WindTrendEpsilonKts,
			TrendFalling,
		},
		{
			"small change is flat",
			[]*float64{fptr(10), fptr(10.5), fptr(11)},
			3, WindTrendEpsilonKts,
			TrendFlat,
		},
		{
			"change of exactly epsilon is flat",
			[]*float64{fptr(10), fptr(11.5), fptr(13)},
			3, WindTrendEpsilonKts,
			TrendFlat,
		},
		{
			"change just past epsilon rises",
			[]*float64{fptr(10), fptr(11.51), fptr(13.02)},
			3, WindTrendEpsilonKts,
			TrendRising,
		},
		{
			"nulls are skipped not counted",
			[]*float64{fptr(10), nil, fptr(12), nil, fptr(14)},
			3, WindTrendEpsilonKts,
			TrendRising,
		},
		{
			"window selects newest samples",
			[]*float64{fptr(50), fptr(50), fptr(10), fptr(12), fptr(14)},
			3, WindTrendEpsilonKts,
			TrendRising,
		},
		{
			"single usable sample is flat",
			[]*float64{nil, nil, fptr(5)},
			3, WindTrendEpsilonKts,
			TrendFlat,
		},
		{
			"all null is flat",
			[]*float64{nil, nil, nil},
			3, WindTrendEpsilonKts,
			TrendFlat,
		},
		{
			"empty is flat",
			nil,
			3, WindTrendEpsilonKts,
			TrendFlat,
		},
		{
			"window below two is flat",
			[]*float64{fptr(0), fptr(100)},
			1, WindTrendEpsilonKts,
			TrendFlat,
		},
		{
			"wave epsilon",
			[]*float64{fptr(1.0), fptr(1.1), fptr(1.2)},
			3, WaveTrendEpsilonM,
			TrendRising,
		},
		{
			"tide epsilon holds noise flat",
			[]*float64{fptr(1.00), fptr(1.05), fptr(1.10)},
			3, TideTrendEpsilonM,
			TrendFlat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyTrend(tt.values, tt.window, tt.epsilon))
		})
	}
}
