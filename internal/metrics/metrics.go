package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "projection_runs_total",
		Help: "Total number of simulation runs, labelled by final status.",
	}, []string{"status"})

	PathsSimulated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "projection_paths_simulated_total",
		Help: "Total number of Monte Carlo paths completed.",
	})

	PathBreaches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "projection_path_breaches_total",
		Help: "Total number of paths that raised a flag, labelled by kind.",
	}, []string{"kind"})

	NormalizerWarnings = promauto.NewCounter(prometheus.CounterOpts{
		Name: "projection_normalizer_warnings_total",
		Help: "Total number of ledger entries skipped or truncated during normalization.",
	})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "projection_run_duration_ms",
		Help:    "End-to-end run latency in milliseconds.",
		Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
	})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "projection_queue_utilization_ratio",
		Help: "Path queue utilization (0–1) observed at submission.",
	})

	HealthOK = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "projection_core_healthy",
		Help: "1 when the last health check of the numeric core passed, otherwise 0.",
	})
)
