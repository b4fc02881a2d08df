package job

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// jobMetrics holds the Prometheus metrics owned by the job manager.
// Metrics register against an injected registry so tests stay hermetic.
type jobMetrics struct {
	// jobsTotal counts finished ingestion jobs, partitioned by outcome:
	// "done" or "failed".
	jobsTotal *prometheus.CounterVec

	// jobDurationSeconds records wall-clock job duration from submit to
	// completion, partitioned by outcome.
	jobDurationSeconds *prometheus.HistogramVec

	// queueDepth is the number of jobs waiting for a worker.
	queueDepth prometheus.Gauge
}

func newJobMetrics(reg prometheus.Registerer) *jobMetrics {
	factory := promauto.With(reg)

	return &jobMetrics{
		jobsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rag",
			Subsystem: "ingest",
			Name:      "jobs_total",
			Help:      "Total number of ingestion jobs finished, partitioned by outcome.",
		}, []string{"outcome"}),

		jobDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rag",
			Subsystem: "ingest",
			Name:      "job_duration_seconds",
			Help:      "Wall-clock duration of ingestion jobs from submit to completion.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"outcome"}),

		queueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "rag",
			Subsystem: "ingest",
			Name:      "queue_depth",
			Help:      "Number of ingestion jobs waiting for a worker.",
		}),
	}
}
