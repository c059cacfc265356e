// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"time"

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
		[]string{"method", "route", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// CompletionDuration tracks how long the completion provider took to answer.
	CompletionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "completion_duration_seconds",
			Help:    "Completion provider call duration",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"provider", "outcome"},
	)

	// CompletionsTotal counts completion calls by outcome
	// (success, rate_limited, failed).
	CompletionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "completions_total",
			Help: "Total completion provider calls",
		},
		[]string{"provider", "outcome"},
	)

	// StoreOperationDuration tracks session store round trips.
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_operation_duration_seconds",
			Help:    "Session store operation duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"backend", "operation", "status"},
	)

	// MessagesTotal tracks persisted chat messages.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_total",
			Help: "Total chat messages persisted",
		},
		[]string{"author"},
	)

	// ChatsClearedTotal counts documents removed by the clear-all operation.
	ChatsClearedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chats_cleared_total",
			Help: "Chat documents removed by clear-all",
		},
	)

	// SessionsCreatedTotal counts new browser sessions.
	SessionsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_created_total",
			Help: "Sessions created",
		},
	)

	// EventsPublishedTotal counts activity events sent to NATS.
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_events_published_total",
			Help: "Chat activity events published",
		},
		[]string{"type", "status"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, route, status string, duration float64) {
	RequestDuration.WithLabelValues(method, route, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, route, status).Inc()
}

// RecordCompletion records metrics for one completion call.
func RecordCompletion(provider, outcome string, duration time.Duration) {
	CompletionDuration.WithLabelValues(provider, outcome).Observe(duration.Seconds())
	CompletionsTotal.WithLabelValues(provider, outcome).Inc()
}

// RecordStoreOperation records metrics for one store round trip.
func RecordStoreOperation(backend, operation string, err error, duration time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	StoreOperationDuration.WithLabelValues(backend, operation, status).Observe(duration.Seconds())
}

// RecordMessage increments the persisted message counter.
func RecordMessage(isUser bool) {
	author := "assistant"
	if isUser {
		author = "user"
	}
	MessagesTotal.WithLabelValues(author).Inc()
}
