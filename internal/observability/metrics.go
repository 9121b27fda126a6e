package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for location estimation.
type Metrics struct {
	ProviderRequests *prometheus.CounterVec   // labels: provider, outcome={success,timeout,network,provider_error,permission_denied}
	ProviderDuration *prometheus.HistogramVec // labels: provider
	RaceDuration     *prometheus.HistogramVec // labels: phase={fast,precise}

	CacheLookups prometheus.Counter
	CacheHits    prometheus.Counter
	CacheExpired prometheus.Counter

	Fallbacks prometheus.Counter
	Upgrades  *prometheus.CounterVec // labels: result={applied,suppressed}
}

// NewMetrics creates and registers all estimation metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "location",
			Name:      "provider_requests_total",
			Help:      "Provider calls by adapter and outcome.",
		}, []string{"provider", "outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "location",
			Name:      "provider_duration_seconds",
			Help:      "Individual provider call duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 10},
		}, []string{"provider"}),
		RaceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "location",
			Name:      "race_duration_seconds",
			Help:      "End-to-end race duration per estimation phase.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 3, 5, 10, 15},
		}, []string{"phase"}),
		CacheLookups: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "location",
			Name:      "cache_lookups_total",
			Help:      "Total estimate cache reads.",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "location",
			Name:      "cache_hits_total",
			Help:      "Cache reads that returned a live estimate.",
		}),
		CacheExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "location",
			Name:      "cache_expired_total",
			Help:      "Cache reads that found only an expired entry.",
		}),
		Fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "location",
			Name:      "fallbacks_total",
			Help:      "Estimations that returned the fixed fallback coordinate.",
		}),
		Upgrades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "location",
			Name:      "upgrades_total",
			Help:      "Precise-phase results by whether they upgraded the fast estimate.",
		}, []string{"result"}),
	}

	prometheus.MustRegister(
		m.ProviderRequests,
		m.ProviderDuration,
		m.RaceDuration,
		m.CacheLookups,
		m.CacheHits,
		m.CacheExpired,
		m.Fallbacks,
		m.Upgrades,
	)

	return m
}

// NewMetricsForTesting creates Metrics with unregistered collectors to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "location", Name: "provider_requests_total"}, []string{"provider", "outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "location", Name: "provider_duration_seconds"}, []string{"provider"}),
		RaceDuration:     prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "location", Name: "race_duration_seconds"}, []string{"phase"}),
		CacheLookups:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "location", Name: "cache_lookups_total"}),
		CacheHits:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "location", Name: "cache_hits_total"}),
		CacheExpired:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "location", Name: "cache_expired_total"}),
		Fallbacks:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "location", Name: "fallbacks_total"}),
		Upgrades:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "location", Name: "upgrades_total"}, []string{"result"}),
	}
}
