package cache

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Result labels for the cache_requests_total counter.
const (
	ResultHit  = "hit"
	ResultMiss = "miss"
)

// Tier labels shared by all cache metrics.
const (
	TierLocal  = "local"
	TierShared = "shared"
)

// Metrics holds the Prometheus instruments for the cache subsystem.
// A nil *Metrics is valid and records nothing, so backends can be
// constructed without instrumentation in tests.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	promotionsTotal prometheus.Counter
	failuresTotal   *prometheus.CounterVec
}

// NewMetrics creates and registers the cache metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_requests_total",
			Help: "Cache operations by tier, operation and result.",
		}, []string{"tier", "operation", "result"}),
		promotionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_promotions_total",
			Help: "Values copied from the shared tier into the local tier after a read.",
		}),
		failuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_backend_failures_total",
			Help: "Backend failures absorbed by fail-open handling.",
		}, []string{"tier", "operation"}),
	}
	reg.MustRegister(m.requestsTotal, m.promotionsTotal, m.failuresTotal)
	return m
}

// Request records the outcome of a tier lookup.
func (m *Metrics) Request(tier, operation, result string) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(tier, operation, result).Inc()
}

// Promotion records a shared-to-local copy-back.
func (m *Metrics) Promotion() {
	if m == nil {
		return
	}
	m.promotionsTotal.Inc()
}

// BackendFailure records a failure swallowed by a backend.
func (m *Metrics) BackendFailure(tier, operation string) {
	if m == nil {
		return
	}
	m.failuresTotal.WithLabelValues(tier, operation).Inc()
}
