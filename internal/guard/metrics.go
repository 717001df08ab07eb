package guard

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	decisions       *prometheus.CounterVec
	resolveFailures prometheus.Counter
	lookupFailures  prometheus.Counter
	lookupDuration  prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_guard_decisions_total",
			Help: "Route guard outcomes by rule.",
		}, []string{"rule", "outcome"}),
		resolveFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "gateway_session_resolve_failures_total",
			Help: "Session lookups that failed and were treated as anonymous.",
		}),
		lookupFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "gateway_profile_lookup_failures_total",
			Help: "Profile lookups that failed and were treated as a missing profile.",
		}),
		lookupDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gateway_profile_lookup_seconds",
			Help:    "Profile store query latency.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) observeDecision(d Decision) {
	if m == nil {
		return
	}
	outcome := "allow"
	if d.Redirect {
		outcome = "redirect"
	}
	m.decisions.WithLabelValues(d.Rule, outcome).Inc()
}

func (m *Metrics) resolveFailed() {
	if m != nil {
		m.resolveFailures.Inc()
	}
}

func (m *Metrics) lookupFailed() {
	if m != nil {
		m.lookupFailures.Inc()
	}
}

func (m *Metrics) observeLookup(seconds float64) {
	if m != nil {
		m.lookupDuration.Observe(seconds)
	}
}
