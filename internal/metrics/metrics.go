// Package metrics exposes the bot's Prometheus collectors. Label sets
// are fixed enumerations (category, operation, outcome), keeping
// cardinality bounded.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ItemsTracked counts successful increments by category.
	ItemsTracked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emojistats_items_tracked_total",
			Help: "Total number of tracked item occurrences.",
		},
		[]string{"category"},
	)

	// StorageFailures counts storage operations that reported failure.
	StorageFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emojistats_storage_failures_total",
			Help: "Total number of failed storage operations.",
		},
		[]string{"operation"},
	)

	// AdminOps counts destructive admin operations by how the
	// confirmation step ended.
	AdminOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emojistats_admin_operations_total",
			Help: "Total number of admin operations by outcome.",
		},
		[]string{"operation", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(ItemsTracked, StorageFailures, AdminOps)
}
