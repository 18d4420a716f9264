package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// UpstreamRequests counts outbound calls to hosted data providers.
	UpstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_info_upstream_requests_total",
			Help: "Outbound requests to data providers by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)

	// UpstreamDuration observes outbound call latency per provider.
	UpstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wallet_info_upstream_request_duration_seconds",
			Help:    "Latency of outbound requests to data providers.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	// WebhookDeliveries counts webhook delivery attempts by outcome.
	WebhookDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_info_webhook_deliveries_total",
			Help: "Webhook delivery attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// BatchExecutions counts batch executions by final status.
	BatchExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_info_batch_executions_total",
			Help: "Transaction batch executions by final status.",
		},
		[]string{"status"},
	)
)

// MustRegisterMetrics registers all collectors with the default registry.
// Call once from main before serving traffic.
func MustRegisterMetrics() {
	prometheus.MustRegister(
		UpstreamRequests,
		UpstreamDuration,
		WebhookDeliveries,
		BatchExecutions,
	)
}
