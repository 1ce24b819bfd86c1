package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebhookBatchesTotal tracks webhook batches received
	WebhookBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "walletwatch_webhook_batches_total",
			Help: "Total number of webhook batches received",
		},
		[]string{"status"},
	)

	// EventsTotal tracks transfer events by evaluation outcome
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "walletwatch_events_total",
			Help: "Total number of transfer events by outcome",
		},
		[]string{"outcome"},
	)

	// OracleCallsTotal tracks freshness lookups
	OracleCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "walletwatch_oracle_calls_total",
			Help: "Total number of freshness oracle calls",
		},
		[]string{"result"},
	)

	// OracleLatency tracks freshness lookup latency
	OracleLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "walletwatch_oracle_latency_seconds",
			Help:    "Freshness oracle latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// NotificationsTotal tracks notifier deliveries
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "walletwatch_notifications_total",
			Help: "Total number of notification deliveries",
		},
		[]string{"status"},
	)

	// DispatchQueueDepth tracks alerts waiting for delivery
	DispatchQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "walletwatch_dispatch_queue_depth",
			Help: "Number of alerts waiting for delivery",
		},
	)

	// TrackedAddresses tracks the size of the address filter
	TrackedAddresses = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "walletwatch_tracked_addresses",
			Help: "Number of addresses in the address filter",
		},
	)

	// DBConnectionPoolUsage tracks database pool usage in percent
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "walletwatch_db_connection_pool_usage_percent",
			Help: "Database connection pool usage percentage",
		},
	)
)
