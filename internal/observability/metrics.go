package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// forecast service.
type Metrics struct {
	// Provider metrics.
	ProviderRequests *prometheus.CounterVec   // labels: provider, outcome={success,error,empty}
	ProviderDuration *prometheus.HistogramVec // labels: provider

	// Bundle build metrics.
	BundleBuilds          *prometheus.CounterVec // labels: outcome={success,error}
	BuildDuration         prometheus.Histogram
	SyntheticTideFallback prometheus.Counter

	// Cache metrics.
	CacheLookups *prometheus.CounterVec // labels: result={hit,miss,expired,stale,corrupt}

	// Event stream metrics.
	BundleEventsPublished prometheus.Counter
	PublishErrors         prometheus.Counter

	RefreshRunning prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "regatta_forecast",
			Name:      "provider_requests_total",
			Help:      "Upstream provider requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "regatta_forecast",
			Name:      "provider_request_duration_seconds",
			Help:      "Upstream provider request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider"}),
		BundleBuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "regatta_forecast",
			Name:      "bundle_builds_total",
			Help:      "Area bundle builds by outcome.",
		}, []string{"outcome"}),
		BuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "regatta_forecast",
			Name:      "bundle_build_duration_seconds",
			Help:      "Duration of a complete area bundle build.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}),
		SyntheticTideFallback: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "regatta_forecast",
			Name:      "synthetic_tide_fallback_total",
			Help:      "Builds that filled tide data from the synthetic model.",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "regatta_forecast",
			Name:      "cache_lookups_total",
			Help:      "Bundle cache lookups by result.",
		}, []string{"result"}),
		BundleEventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "regatta_forecast",
			Name:      "bundle_events_published_total",
			Help:      "Bundle events written to the stream.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "regatta_forecast",
			Name:      "publish_errors_total",
			Help:      "Bundle event publish failures.",
		}),
		RefreshRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "regatta_forecast",
			Name:      "refresh_running",
			Help:      "1 while a refresh-all pass is in progress, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.ProviderRequests,
		m.ProviderDuration,
		m.BundleBuilds,
		m.BuildDuration,
		m.SyntheticTideFallback,
		m.CacheLookups,
		m.BundleEventsPublished,
		m.PublishErrors,
		m.RefreshRunning,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ProviderRequests:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "regatta_forecast", Name: "provider_requests_total"}, []string{"provider", "outcome"}),
		ProviderDuration:      prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "regatta_forecast", Name: "provider_request_duration_seconds"}, []string{"provider"}),
		BundleBuilds:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "regatta_forecast", Name: "bundle_builds_total"}, []string{"outcome"}),
		BuildDuration:         prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "regatta_forecast", Name: "bundle_build_duration_seconds"}),
		SyntheticTideFallback: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "regatta_forecast", Name: "synthetic_tide_fallback_total"}),
		CacheLookups:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "regatta_forecast", Name: "cache_lookups_total"}, []string{"result"}),
		BundleEventsPublished: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "regatta_forecast", Name: "bundle_events_published_total"}),
		PublishErrors:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "regatta_forecast", Name: "publish_errors_total"}),
		RefreshRunning:        prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "regatta_forecast", Name: "refresh_running"}),
	}
}
