package hooks

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "statusbar"

var (
	hookRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hooks",
			Name:      "runs_total",
			Help:      "Hook executions by event and outcome",
		},
		[]string{"event", "outcome"},
	)

	hookRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "hooks",
			Name:      "run_duration_seconds",
			Help:      "Hook execution wall time",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"event"},
	)
)

// recordHookRun records one hook execution.
func recordHookRun(event, outcome string, duration time.Duration) {
	hookRuns.WithLabelValues(event, outcome).Inc()
	hookRunDuration.WithLabelValues(event).Observe(duration.Seconds())
}
