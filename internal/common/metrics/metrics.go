// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PairsEvaluated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dedup_pairs_evaluated_total",
			Help: "Total number of candidate pairs evaluated, by decision and reason",
		},
		[]string{"decision", "reason"},
	)

	CompositeScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dedup_composite_score",
			Help:    "Distribution of weighted composite scores",
			Buckets: prometheus.LinearBuckets(0, 0.05, 21),
		},
	)

	DealerRuleApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dedup_dealer_rule_applied_total",
			Help: "Total number of scoring runs that used a dealer rule override",
		},
		[]string{"tenant_id"},
	)

	ReviewItemsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dedup_review_items_created_total",
			Help: "Total number of review items enqueued, by priority",
		},
		[]string{"priority"},
	)

	ReviewItemsResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dedup_review_items_resolved_total",
			Help: "Total number of review items resolved, by final status",
		},
		[]string{"status"},
	)

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
)
