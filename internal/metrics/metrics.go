// Package metrics exposes Prometheus metrics for the matching pipeline and
// its external collaborators.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mrgreedy",
		Subsystem: "pipeline",
		Name:      "submissions_total",
		Help:      "Application submissions by terminal outcome.",
	}, []string{"status"})

	pipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "mrgreedy",
		Subsystem: "pipeline",
		Name:      "duration_seconds",
		Help:      "End-to-end duration of one submission through the pipeline.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	stageErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mrgreedy",
		Subsystem: "pipeline",
		Name:      "stage_errors_total",
		Help:      "Pipeline failures by stage.",
	}, []string{"stage"})

	llmRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mrgreedy",
		Subsystem: "ai",
		Name:      "llm_requests_total",
		Help:      "LLM calls by operation and outcome.",
	}, []string{"operation", "outcome"})

	embeddingRequests = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mrgreedy",
		Subsystem: "ai",
		Name:      "embedding_requests_total",
		Help:      "Embedding model calls.",
	})
)

// RecordSubmission counts one finished submission with its terminal status.
func RecordSubmission(status string) {
	submissionsTotal.WithLabelValues(status).Inc()
}

// ObservePipelineDuration records how long one submission took end to end.
func ObservePipelineDuration(d time.Duration) {
	pipelineDuration.Observe(d.Seconds())
}

// RecordStageError counts a failure attributed to a pipeline stage.
func RecordStageError(stage string) {
	stageErrors.WithLabelValues(stage).Inc()
}

// RecordLLMRequest counts one generate call.
func RecordLLMRequest(operation, outcome string) {
	llmRequests.WithLabelValues(operation, outcome).Inc()
}

// RecordEmbeddingRequest counts one embedding call.
func RecordEmbeddingRequest() {
	embeddingRequests.Inc()
}
