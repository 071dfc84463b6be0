package domain

import "time"

// Trend epsilons per metric, in units per hour. Mean hourly changes inside
// the epsilon classify as flat so ordinary provider noise does not flip the
// trend between polls.
const (
	WindTrendEpsilonKts  = 1.5
	WaveTrendEpsilonM    = 0.05
	TideTrendEpsilonM    = 0.1
	TempTrendEpsilonC    = 0.5
	CloudTrendEpsilonPct = 5.0
)

// CurrentIndex returns the index of the latest timestamp at or before now
// (hour-truncated). A series that lies entirely in the future returns 0.
// Timestamps must be in ascending order, which every normalized forecast
// guarantees.
func CurrentIndex(times []time.Time, now time.Time) int {
	hour := now.UTC().Truncate(time.Hour)
	current := 0
	for i, t := range times {
		if t.After(hour) {
			break
		}
		current = i
	}
	return current
}

// CoalesceCurrent selects the present-moment value from an hourly column:
// the current-hour slot first, then the next hour, then the previous hour.
// The 3-slot window absorbs single-hour provider gaps without guessing
// further; nil means all three slots were missing.
func CoalesceCurrent(values []*float64, times []time.Time, now time.Time) *float64 {
	if len(values) == 0 {
		return nil
	}
	idx := CurrentIndex(times, now)
	for _, i := range []int{idx, idx + 1, idx - 1} {
		if i < 0 || i >= len(values) {
			continue
		}
		if values[i] != nil {
			return values[i]
		}
	}
	return nil
}

// ClassifyTrend classifies the direction of the last window non-nil samples
// of a column. Nil samples are skipped, not counted. The mean per-step
// change (last-first)/(count-1) must strictly exceed epsilon to classify as
// rising, or fall strictly below -epsilon for falling; a change of exactly
// epsilon is flat. Fewer than two usable samples is flat.
func ClassifyTrend(values []*float64, window int, epsilon float64) Trend {
	if window < 2 {
		return TrendFlat
	}

	// Gathered newest-first: samples[0] is the most recent usable value.
	samples := make([]float64, 0, window)
	for i := len(values) - 1; i >= 0 && len(samples) < window; i-- {
		if values[i] == nil {
			continue
		}
		samples = append(samples, *values[i])
	}
	if len(samples) < 2 {
		return TrendFlat
	}

	newest := samples[0]
	oldest := samples[len(samples)-1]
	step := (newest - oldest) / float64(len(samples)-1)
	return ClassifyDelta(step, epsilon)
}

// ClassifyDelta classifies a single per-hour change against an epsilon.
// Used directly for tide, whose smooth curve is probed at two instants
// rather than sampled over a window.
func ClassifyDelta(delta, epsilon float64) Trend {
	switch {
	case delta > epsilon:
		return TrendRising
	case delta < -epsilon:
		return TrendFalling
	default:
		return TrendFlat
	}
}
