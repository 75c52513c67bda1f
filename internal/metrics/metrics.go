package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ResumesScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resume_ranker_resumes_scored_total",
			Help: "Total number of resumes scored",
		},
		[]string{"strategy"},
	)

	BatchesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resume_ranker_batches_failed_total",
			Help: "Total number of scoring batches aborted",
		},
		[]string{"strategy", "reason"},
	)

	BatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "resume_ranker_batch_duration_seconds",
			Help:    "Duration of a scoring batch in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"strategy"},
	)

	// 模型输出无法解析、字段缺失或越界时计数，对应结果会降级
	ModelScoreDegraded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resume_ranker_model_score_degraded_total",
			Help: "Number of model scoring responses that were unparseable, missing fields or out of range",
		},
		[]string{"reason"},
	)

	CompletionCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resume_ranker_completion_calls_total",
			Help: "Total number of completion service calls",
		},
		[]string{"operation", "status"},
	)

	CompletionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "resume_ranker_completion_duration_seconds",
			Help: "Duration of completion service calls in seconds",
		},
		[]string{"operation"},
	)

	ExtractionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resume_ranker_extraction_failures_total",
			Help: "Number of uploaded documents whose text could not be extracted",
		},
		[]string{"mime_type"},
	)

	CriteriaCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resume_ranker_criteria_cache_lookups_total",
			Help: "Criteria cache lookups by result",
		},
		[]string{"result"},
	)

	BatchesInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "resume_ranker_batches_in_flight",
			Help: "Number of scoring batches currently running",
		},
	)
)
