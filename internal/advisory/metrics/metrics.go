package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the conflict resolver.
type Metrics struct {
	ResolveOutcome *prometheus.CounterVec
	RemoteLatency  prometheus.Histogram
	BreakerState   *prometheus.GaugeVec
}

// New creates and registers conflict-resolver metrics.
func New() *Metrics {
	return &Metrics{
		ResolveOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tokengate_advisory_resolutions_total",
			Help: "Conflict resolutions by origin tier and approval",
		}, []string{"origin", "approved"}),

		RemoteLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tokengate_advisory_remote_duration_seconds",
			Help:    "Duration of advisory service resolve calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),

		BreakerState: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tokengate_advisory_breaker_open",
			Help: "Whether the advisory circuit breaker is open (1) or closed (0)",
		}, []string{"breaker"}),
	}
}

// IncOutcome records one resolution by origin and approval.
func (m *Metrics) IncOutcome(origin string, approved bool) {
	if m != nil {
		m.ResolveOutcome.WithLabelValues(origin, boolLabel(approved)).Inc()
	}
}

// ObserveRemoteLatency records one advisory call duration.
func (m *Metrics) ObserveRemoteLatency(d time.Duration) {
	if m != nil {
		m.RemoteLatency.Observe(d.Seconds())
	}
}

// SetBreakerOpen records the breaker state.
func (m *Metrics) SetBreakerOpen(name string, open bool) {
	if m != nil {
		v := 0.0
		if open {
			v = 1.0
		}
		m.BreakerState.WithLabelValues(name).Set(v)
	}
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
