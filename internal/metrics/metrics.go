// Package metrics registers the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesProcessed counts assistant turns by outcome.
	MessagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codechat_messages_processed_total",
		Help: "Assistant messages processed, labeled by outcome.",
	}, []string{"status"})

	// StreamChunks counts text chunks forwarded to clients.
	StreamChunks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codechat_stream_chunks_total",
		Help: "Streamed response chunks forwarded to clients.",
	})

	// SuggestionsGenerated counts persisted pattern suggestions.
	SuggestionsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codechat_suggestions_generated_total",
		Help: "Pattern suggestions generated and persisted.",
	})

	// FilesIndexed counts index run outcomes per file.
	FilesIndexed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codechat_files_indexed_total",
		Help: "Files seen by index runs, labeled indexed, skipped or failed.",
	}, []string{"result"})

	// HTTPRequests counts handled HTTP requests.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codechat_http_requests_total",
		Help: "HTTP requests handled, labeled by method, path and status.",
	}, []string{"method", "path", "status"})

	// HTTPDuration observes request latency per route.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "codechat_http_request_duration_seconds",
		Help:    "HTTP request latency by method and path.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
)
