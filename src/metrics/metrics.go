// Package metrics registers the Prometheus collectors for the service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "talentnest_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "talentnest_api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Connection requests
	ConnectionTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "talentnest_connection_transitions_total",
			Help: "Connection request state transitions",
		},
		[]string{"to"}, // pending, accepted, rejected, cancelled
	)

	ConnectionConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "talentnest_connection_conflicts_total",
			Help: "Connection operations refused with a conflict",
		},
		[]string{"operation"},
	)

	// Notifications
	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "talentnest_notifications_created_total",
			Help: "Notifications persisted",
		},
		[]string{"type"},
	)

	// Realtime
	RealtimePublishes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "talentnest_realtime_publishes_total",
			Help: "Realtime publish attempts by transport and result",
		},
		[]string{"transport", "result"}, // hub|nats, ok|error|fallback
	)

	RealtimeDroppedFrames = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "talentnest_realtime_dropped_frames_total",
			Help: "Frames dropped because a client send queue was full",
		},
	)

	RealtimeClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "talentnest_realtime_clients",
			Help: "Currently connected realtime clients",
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "talentnest_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

// ObserveRequest records one finished HTTP request.
func ObserveRequest(method, route, status string, d time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
