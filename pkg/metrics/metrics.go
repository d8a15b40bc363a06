// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// IngestTotal tracks ingested email webhooks by detected platform.
	IngestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_requests_total",
			Help: "Total email ingestion requests",
		},
		[]string{"platform", "status"},
	)

	// IngestStageTotal tracks per-stage outcomes inside the ingestion pipeline.
	IngestStageTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_stage_total",
			Help: "Ingestion pipeline stage outcomes",
		},
		[]string{"stage", "status"},
	)

	// GuestExtractionsTotal tracks guest-message extraction attempts per platform.
	GuestExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guest_extractions_total",
			Help: "Guest message extraction attempts by platform normalizer",
		},
		[]string{"platform", "outcome"},
	)

	// StoreOpsTotal tracks knowledge store operations.
	StoreOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "knowledge_store_ops_total",
			Help: "Knowledge store operations",
		},
		[]string{"op", "status"},
	)

	// StoreOpDuration tracks knowledge store operation latency.
	StoreOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "knowledge_store_op_duration_seconds",
			Help:    "Knowledge store operation duration",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"op"},
	)

	// ReplyDuration tracks suggested-reply generation latency.
	ReplyDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reply_generation_duration_seconds",
			Help:    "Suggested reply generation duration",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"model", "status"},
	)

	// ReplyTokensTotal tracks LLM tokens used by the reply generator.
	ReplyTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reply_tokens_total",
			Help: "LLM tokens used for suggested replies",
		},
		[]string{"model", "direction"},
	)

	// NotificationsTotal tracks host notification attempts.
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "host_notifications_total",
			Help: "Host notification attempts",
		},
		[]string{"transport", "status"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordStoreOp records a knowledge store operation.
func RecordStoreOp(op, status string, duration float64) {
	StoreOpsTotal.WithLabelValues(op, status).Inc()
	StoreOpDuration.WithLabelValues(op).Observe(duration)
}

// RecordReply records metrics for a suggested-reply generation.
func RecordReply(model, status string, duration float64, tokensIn, tokensOut int) {
	ReplyDuration.WithLabelValues(model, status).Observe(duration)
	ReplyTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	ReplyTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
}
