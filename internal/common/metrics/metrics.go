// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	// outcome is "success" or the error kind of the sentinel
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partner_analyses_total",
			Help: "Recommendation requests by outcome",
		},
		[]string{"provider", "outcome"},
	)

	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "partner_analysis_duration_seconds",
			Help:    "Latency of recommendation requests",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"provider"},
	)

	AnalysisCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partner_analysis_cache_lookups_total",
			Help: "Analysis cache lookups by result",
		},
		[]string{"backend", "result"},
	)

	// Requests whose result was dropped because a newer request for the same
	// partner or a Forget superseded them.
	AnalysesDiscarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "partner_analyses_discarded_total",
			Help: "Recommendation results discarded as stale or cancelled",
		},
	)

	AggregationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partner_aggregations_total",
			Help: "Aggregation runs by dimension",
		},
		[]string{"dimension"},
	)

	PartnersStored = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "partners_stored",
			Help: "Number of partner records currently held",
		},
	)
)
