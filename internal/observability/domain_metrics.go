package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	intentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_intents_total",
			Help: "Total number of validated or rejected intents by outcome.",
		},
		[]string{"outcome"},
	)
	queryExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_query_executions_total",
			Help: "Total number of compiled statements executed by status.",
		},
		[]string{"status"},
	)
	queryDurationMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "askdb_query_duration_ms",
			Help:    "Compiled statement execution latency in milliseconds.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
	)
	shapedResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_shaped_results_total",
			Help: "Total number of shaped results by kind.",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(
		intentsTotal,
		queryExecutionsTotal,
		queryDurationMs,
		shapedResultsTotal,
	)
}

// ObserveIntent counts a validation outcome such as "validated",
// "malformed" or "rejected_where".
func ObserveIntent(outcome string) {
	intentsTotal.WithLabelValues(outcome).Inc()
}

func ObserveExecution(status string, elapsed time.Duration) {
	queryExecutionsTotal.WithLabelValues(status).Inc()
	queryDurationMs.Observe(float64(elapsed.Milliseconds()))
}

func ObserveShaped(kind string) {
	shapedResultsTotal.WithLabelValues(kind).Inc()
}
