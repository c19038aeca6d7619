// Package metrics defines the process-wide Prometheus collectors. The CLI is
// short-lived, so collectors are flushed to a node_exporter textfile on exit
// rather than scraped.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rotisserie/eris"
)

var (
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emissions_queries_total",
			Help: "Total query engine operations",
		},
		[]string{"op", "status"},
	)

	QueryLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "emissions_query_latency_seconds",
			Help:    "Query engine operation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	RowsReturned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emissions_query_rows_total",
			Help: "Total rows returned by query engine operations",
		},
		[]string{"op"},
	)

	LimitsClamped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emissions_query_limits_clamped_total",
			Help: "Requested limits reduced to the configured maximum",
		},
		[]string{"op"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emissions_cache_lookups_total",
			Help: "Filter-option cache lookups",
		},
		[]string{"result"},
	)

	LeadsScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emissions_leads_scored_total",
			Help: "Leads scored, by tier",
		},
		[]string{"tier"},
	)

	LeadsFiltered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emissions_leads_filtered_total",
			Help: "Lead candidates rejected before scoring, by criterion",
		},
		[]string{"criterion"},
	)
)

// WriteTextfile writes every registered collector to path in the Prometheus
// text format. An empty path is a no-op.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return eris.Wrapf(err, "metrics: write textfile %s", path)
	}
	return nil
}
