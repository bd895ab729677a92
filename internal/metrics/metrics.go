package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APIRequests counts calls to the employee service by operation and outcome.
	APIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ignite",
		Subsystem: "employee_api",
		Name:      "requests_total",
		Help:      "Requests sent to the employee service.",
	}, []string{"operation", "outcome"})

	// APIDuration tracks employee service latency.
	APIDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ignite",
		Subsystem: "employee_api",
		Name:      "request_duration_seconds",
		Help:      "Latency of employee service requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	// StoreRecords is the size of the record store collection.
	StoreRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ignite",
		Subsystem: "store",
		Name:      "records",
		Help:      "Records currently held by the record store.",
	})

	// StoreStatus is 1 for the current store status and 0 for the others.
	StoreStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "ignite",
		Subsystem: "store",
		Name:      "status",
		Help:      "Current record store status.",
	}, []string{"status"})

	// Notifications counts flash messages pushed, by level.
	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ignite",
		Subsystem: "flash",
		Name:      "messages_total",
		Help:      "Notifications queued for display.",
	}, []string{"level"})
)

// ObserveAPI records one employee service call.
func ObserveAPI(operation, outcome string, took time.Duration) {
	APIRequests.WithLabelValues(operation, outcome).Inc()
	APIDuration.WithLabelValues(operation).Observe(took.Seconds())
}

// SetStoreState publishes the store status and size.
func SetStoreState(status string, records int, all []string) {
	for _, s := range all {
		v := 0.0
		if s == status {
			v = 1
		}
		StoreStatus.WithLabelValues(s).Set(v)
	}
	StoreRecords.Set(float64(records))
}
