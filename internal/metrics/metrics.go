// Package metrics declares the Prometheus instrumentation of the server.
// Metrics register with the default registry through promauto and are
// exposed by mounting promhttp.Handler on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embed_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "embed_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Broker metrics
var (
	BrokerRegistrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embed_broker_registrations_total",
			Help: "Total number of serviced registrations by path (immediate, flushed)",
		},
		[]string{"path"},
	)

	BrokerPendingRegistrations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "embed_broker_pending_registrations",
			Help: "Number of registrations waiting for the player factory",
		},
	)

	BrokerScriptInsertionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "embed_broker_script_insertions_total",
			Help: "Total number of player script insertions",
		},
	)

	BrokerReadyTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "embed_broker_ready_total",
			Help: "Total number of pages whose player factory became ready",
		},
	)
)

// Page and bridge metrics
var (
	PagesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "embed_pages_active",
			Help: "Number of pages currently registered",
		},
	)

	BridgeSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "embed_bridge_sessions_active",
			Help: "Number of connected bridge sessions",
		},
	)

	BridgeMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embed_bridge_messages_total",
			Help: "Total number of bridge messages by direction and type",
		},
		[]string{"direction", "type"},
	)

	StatusWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embed_status_writes_total",
			Help: "Total number of player status writes by result",
		},
		[]string{"result"},
	)
)
