package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_requests_total",
			Help: "Total number of recommendation requests by outcome",
		},
		[]string{"outcome"},
	)

	RecommendStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommend_stage_duration_seconds",
			Help:    "Duration of recommendation stages in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 3, 9),
		},
		[]string{"stage"},
	)

	DurationLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duration_lookups_total",
			Help: "Assessment duration lookups by source tier and result",
		},
		[]string{"tier", "result"},
	)

	CatalogEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_entries",
			Help: "Number of valid catalog entries in the last loaded catalog",
		},
	)

	CatalogRowsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_rows_dropped_total",
			Help: "Catalog rows dropped during load by reason",
		},
		[]string{"reason"},
	)
)
