// Package metrics provides Prometheus metrics definitions.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "statusbar"

var (
	// HTTPRequestDuration tracks HTTP request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "route", "status"},
	)

	sourceFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "source_fetches_total",
			Help:      "Per-source fetch attempts by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	refreshCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of a full refresh cycle",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	worstSeverity = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "worst_severity",
			Help:      "Worst severity across all sources (-1 unknown, 0 none, 1 minor, 2 major, 3 critical)",
		},
	)

	sourcesConfigured = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "sources_configured",
			Help:      "Number of configured sources",
		},
	)
)

// RecordSourceFetch records one fetch attempt.
func RecordSourceFetch(provider, outcome string) {
	sourceFetches.WithLabelValues(provider, outcome).Inc()
}

// RecordRefreshCycle records a completed refresh cycle.
func RecordRefreshCycle(duration time.Duration) {
	refreshCycleDuration.Observe(duration.Seconds())
}

// RecordWorstSeverity updates the aggregate severity gauge.
func RecordWorstSeverity(level int) {
	worstSeverity.Set(float64(level))
}

// RecordSourcesConfigured updates the configured-source gauge.
func RecordSourcesConfigured(count int) {
	sourcesConfigured.Set(float64(count))
}
