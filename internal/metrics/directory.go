// Package metrics holds the Prometheus collectors exported by dirsite.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dirsite"

// Search and store metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Search endpoint requests by outcome",
		},
		[]string{"outcome"}, // "ok" / "empty" / "error"
	)

	SearchResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of listings returned per search",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		},
	)

	StoreQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_query_duration_seconds",
			Help:      "Listing store call duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"driver", "op"},
	)

	StoreErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Listing store call failures",
		},
		[]string{"driver", "op"},
	)
)

var registerOnce sync.Once

// RegisterDirectoryMetrics registers the search and store collectors with the
// default registry. Safe to call more than once.
func RegisterDirectoryMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(SearchRequestsTotal)
		prometheus.MustRegister(SearchResults)
		prometheus.MustRegister(StoreQueryDuration)
		prometheus.MustRegister(StoreErrorsTotal)
	})
}
