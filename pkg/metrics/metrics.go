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
			Name:    "eva_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eva_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// CompletionDuration tracks completion provider round trips.
	CompletionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eva_completion_duration_seconds",
			Help:    "Completion provider call duration",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"provider", "outcome"},
	)

	// CompletionsTotal tracks completion calls by outcome.
	CompletionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eva_completions_total",
			Help: "Total completion provider calls",
		},
		[]string{"provider", "outcome"},
	)

	// TokensTotal tracks provider tokens processed.
	TokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eva_llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"provider", "direction"},
	)

	// SSEConnectionsActive tracks active SSE connections.
	SSEConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "eva_sse_connections_active",
			Help: "Number of active SSE connections",
		},
	)

	// SessionsTotal tracks sessions created.
	SessionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eva_sessions_total",
			Help: "Total chat sessions created",
		},
	)

	// ChatsTotal tracks chats created.
	ChatsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eva_chats_total",
			Help: "Total chats created",
		},
	)

	// MessagesTotal tracks messages appended.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eva_messages_total",
			Help: "Total messages appended",
		},
		[]string{"sender"},
	)

	// JournalPublishFailures tracks chat events the journal failed to accept.
	JournalPublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eva_journal_publish_failures_total",
			Help: "Chat events that could not be written to the journal",
		},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordCompletion records metrics for one completion provider call.
func RecordCompletion(provider, outcome string, duration float64, tokensIn, tokensOut int) {
	CompletionDuration.WithLabelValues(provider, outcome).Observe(duration)
	CompletionsTotal.WithLabelValues(provider, outcome).Inc()
	TokensTotal.WithLabelValues(provider, "in").Add(float64(tokensIn))
	TokensTotal.WithLabelValues(provider, "out").Add(float64(tokensOut))
}

// IncrementSSEConnections increments the active SSE connection count.
func IncrementSSEConnections() {
	SSEConnectionsActive.Inc()
}

// DecrementSSEConnections decrements the active SSE connection count.
func DecrementSSEConnections() {
	SSEConnectionsActive.Dec()
}
