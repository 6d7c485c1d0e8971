// Package metrics holds the Prometheus collectors for inventory operations.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "inventory"

// Operation results.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Live view labels.
const (
	ViewItems = "items"
	ViewItem  = "item"
)

var (
	// HTTPRequests counts finished HTTP requests by route template.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency. Live feeds are left out.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// HTTPRequestsInFlight is the number of requests being served.
	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)

	// StoreOperations counts store writes and reads by outcome.
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Total number of store operations",
		},
		[]string{"operation", "result"},
	)

	// ItemsSold counts units sold through the controller.
	ItemsSold = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_sold_total",
			Help:      "Total number of item units sold",
		},
	)

	// PendingJobs is the depth of the controller's background queue.
	PendingJobs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_jobs",
			Help:      "Number of store writes waiting to run",
		},
	)

	// LiveSubscribers tracks open live view subscriptions.
	LiveSubscribers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_subscribers",
			Help:      "Number of active live view subscriptions",
		},
		[]string{"view"},
	)
)

// ObserveStore records the outcome of a store operation.
func ObserveStore(operation string, err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	StoreOperations.WithLabelValues(operation, result).Inc()
}

// ObserveHTTP records one finished request.
func ObserveHTTP(method, path string, status int, elapsed time.Duration, upgraded bool) {
	HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	if !upgraded {
		HTTPRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
	}
}
