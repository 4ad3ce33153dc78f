// Package metrics owns the Prometheus collectors of the API gateway.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rice_supply"

var (
	// Registry holds the application collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "route"},
	)

	outboxMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "messages_total",
			Help:      "Outbox deliveries by notifier and outcome.",
		},
		[]string{"notifier", "status"},
	)

	outboxQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "queue_depth",
			Help:      "Messages waiting in the outbox queue.",
		},
	)

	snapshotFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "snapshot_failures_total",
			Help:      "Failed snapshot loads and saves per record kind.",
		},
		[]string{"kind", "operation"},
	)

	traceEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trace",
			Name:      "events_total",
			Help:      "Record events handled by the trace recorder per outcome.",
		},
		[]string{"outcome"},
	)

	walletBalance = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "wallet_balance_lamports",
			Help:      "Last observed balance of the service wallet.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		outboxMessages,
		outboxQueueDepth,
		snapshotFailures,
		traceEvents,
		walletBalance,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler exposes the registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest records one handled request. route is the matched route pattern.
func ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordOutboxDelivery counts one notifier outcome ("delivered", "failed", "dropped").
func RecordOutboxDelivery(notifier, status string) {
	outboxMessages.WithLabelValues(notifier, status).Inc()
}

// SetOutboxQueueDepth publishes the current queue length.
func SetOutboxQueueDepth(n int) {
	outboxQueueDepth.Set(float64(n))
}

// RecordSnapshotFailure counts a failed snapshot load or save.
func RecordSnapshotFailure(kind, operation string) {
	snapshotFailures.WithLabelValues(kind, operation).Inc()
}

// SetWalletBalance publishes the service wallet balance.
func SetWalletBalance(lamports uint64) {
	walletBalance.Set(float64(lamports))
}

// RecordTraceEvent counts one trace recorder outcome ("recorded", "duplicate", "rejected", "failed").
func RecordTraceEvent(outcome string) {
	traceEvents.WithLabelValues(outcome).Inc()
}
