package telemetry

import "github.com/prometheus/client_golang/prometheus"

const namespace = "reservation_payments"

var (
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	SummariesComputed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "summaries_total",
			Help:      "Reservation payment summaries computed, by overall status.",
		},
		[]string{"status"},
	)

	CatalogFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "fetches_total",
			Help:      "Turnus catalog fetches, by result.",
		},
		[]string{"result"},
	)

	CatalogMissingEntries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "missing_entries_total",
			Help:      "Selected components that had no catalog entry, by kind.",
		},
		[]string{"kind"},
	)

	ItemTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "items",
			Name:      "transitions_total",
			Help:      "Back-office item actions, by action and result.",
		},
		[]string{"action", "result"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestDuration,
		SummariesComputed,
		CatalogFetches,
		CatalogMissingEntries,
		ItemTransitions,
	)
}
