package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the screening chain.
type Metrics struct {
	ProviderLatency  *prometheus.HistogramVec
	ProviderFailures *prometheus.CounterVec
	ChainOutcome     *prometheus.CounterVec
	CacheHits        prometheus.Counter
}

// New creates and registers screening metrics.
func New() *Metrics {
	return &Metrics{
		ProviderLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tokengate_screening_provider_duration_seconds",
			Help:    "Duration of screening provider calls",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider"}),

		ProviderFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tokengate_screening_provider_failures_total",
			Help: "Provider call failures by provider and category",
		}, []string{"provider", "category"}),

		ChainOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tokengate_screening_outcomes_total",
			Help: "Screening outcomes by winning provider and result",
		}, []string{"provider", "result"}),

		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tokengate_screening_cache_hits_total",
			Help: "Screenings served from the pass cache",
		}),
	}
}

// ObserveProviderLatency records one provider call duration.
func (m *Metrics) ObserveProviderLatency(provider string, d time.Duration) {
	if m != nil {
		m.ProviderLatency.WithLabelValues(provider).Observe(d.Seconds())
	}
}

// IncProviderFailure records a failed provider call.
func (m *Metrics) IncProviderFailure(provider, category string) {
	if m != nil {
		m.ProviderFailures.WithLabelValues(provider, category).Inc()
	}
}

// IncOutcome records the chain's final result.
func (m *Metrics) IncOutcome(provider, result string) {
	if m != nil {
		m.ChainOutcome.WithLabelValues(provider, result).Inc()
	}
}

// IncCacheHit records a cache-served screening.
func (m *Metrics) IncCacheHit() {
	if m != nil {
		m.CacheHits.Inc()
	}
}
