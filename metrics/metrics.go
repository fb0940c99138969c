// Package metrics exposes the gateway's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector bundles every dispatch-level metric. One instance lives for the
// process; the orchestrator records into it per attempt.
type Collector struct {
	Attempts  *prometheus.CounterVec
	Fallbacks *prometheus.CounterVec
	Failures  *prometheus.CounterVec
	Duration  *prometheus.HistogramVec

	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
}

// NewCollector registers the metric set against reg. Pass
// prometheus.DefaultRegisterer in the server binary, a fresh registry in
// tests.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		Attempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "qbridge_dispatch_attempts_total",
			Help: "Dispatch attempts by backend key and outcome.",
		}, []string{"backend", "outcome"}),
		Fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "qbridge_fallback_attempts_total",
			Help: "Simulator fallback attempts by outcome.",
		}, []string{"outcome"}),
		Failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "qbridge_dispatch_failures_total",
			Help: "Dispatch failures by backend key and failure kind.",
		}, []string{"backend", "kind"}),
		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "qbridge_attempt_duration_seconds",
			Help:    "Wall-clock duration of one backend attempt.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 14),
		}, []string{"backend"}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "qbridge_result_cache_hits_total",
			Help: "Statevector result cache hits.",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "qbridge_result_cache_misses_total",
			Help: "Statevector result cache misses.",
		}),
	}
}
