// Package domain models per-race-area marine forecast data and the pure
// computations that reconcile it.
//
// # Data Sources
//
// Forecast bundles combine several independently polled upstreams: an
// atmospheric provider for wind/temperature/cloud, a marine provider for
// waves, and (optionally) a tide-prediction provider for station heights.
// Adapters normalize every upstream payload into the canonical shapes here
// ([WindForecast], [WaveForecast], [TideForecast]) at the provider boundary,
// so nothing downstream branches on provider identity.
//
// # Units
//
// Canonical units throughout:
//
//	wind speed, gusts:  knots
//	wave height, tide:  meters
//	directions:         degrees true (0 = north, meteorological convention)
//	temperature:        degrees Celsius
//	cloud cover:        percent
//
// Providers that report other units (e.g. wind in m/s) convert before
// returning; series timestamps are UTC and hour-truncated.
//
// # Missing Values
//
// Metric columns are []*float64 with nil marking "no sample". A wave height
// of zero is physically meaningful, so absence is never encoded as a zero
// and arrays are never truncated: every column of an [HourlySeries] has
// exactly one slot per timestamp.
//
// # Current Values and Trends
//
// "Current" readings are derived from the hourly series, never fetched
// separately. [CoalesceCurrent] reads a 3-slot window (current hour, next,
// previous) to absorb single-hour provider gaps. [ClassifyTrend] examines
// the last few non-nil samples and compares the mean hourly change against
// a metric-specific epsilon; changes inside the epsilon classify as flat so
// sensor noise does not flap the arrow shown to sailors.
//
// # Synthetic Tide
//
// When no live station data is available, [TideHeight] approximates the
// tide from two harmonic constituents: the principal lunar semi-diurnal
// (M2, 12.42 h period) with station-specific amplitude and phase, plus the
// solar semi-diurnal (S2, 12.0 h) at 30% of the M2 amplitude and 80% of its
// phase. A constant mean-sea-level offset is added and the result floored
// at zero. The function is stateless, so the same (station, time) input is
// bit-identical across calls and the model doubles as the "now + 1 h" probe
// for tide trend.
package domain
