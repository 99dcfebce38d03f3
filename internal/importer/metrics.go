package importer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// runsTotal counts finished import runs by outcome.
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_import_runs_total",
		Help: "Total number of import runs by outcome",
	}, []string{"outcome"}) // outcome: success, failed, cancelled

	// runDuration tracks how long import runs take.
	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_import_run_duration_seconds",
		Help:    "Time taken by import runs",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
	})

	// itemsTotal counts product items by outcome.
	itemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_import_items_total",
		Help: "Total number of product items by outcome",
	}, []string{"outcome"}) // outcome: created, updated, skipped, failed

	// variantsTotal counts variant writes.
	variantsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_import_variants_total",
		Help: "Total number of variant writes by action",
	}, []string{"action"})

	categoriesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_import_categories_created_total",
		Help: "Total number of categories auto-created during imports",
	})
)
