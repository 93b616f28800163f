// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics holds the Prometheus collectors of the catalog. Each
// Collector owns a private registry so tests and multiple servers in one
// process never collide on registration.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pdiddy/paper-catalog/pkg/types"
)

// Namespace prefixes every metric name.
const Namespace = "paper_catalog"

// Collector groups the catalog's metrics.
type Collector struct {
	registry *prometheus.Registry

	// QueryDuration observes resolver lookup time by access pattern.
	QueryDuration *prometheus.HistogramVec

	// QueryResults counts items returned by access pattern.
	QueryResults *prometheus.CounterVec

	// HTTPRequests counts query-service requests by route and status.
	HTTPRequests *prometheus.CounterVec

	// ItemsWritten counts persisted projections by kind.
	ItemsWritten *prometheus.CounterVec

	// PapersSkipped counts input records rejected by normalization.
	PapersSkipped prometheus.Counter
}

// New creates a Collector with its own registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		QueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "query_duration_seconds",
				Help:      "Query lookup duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"pattern"},
		),
		QueryResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "query_results_total",
				Help:      "Total number of items returned by queries",
			},
			[]string{"pattern"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"route", "status"},
		),
		ItemsWritten: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "items_written_total",
				Help:      "Total number of projection items written",
			},
			[]string{"kind"},
		),
		PapersSkipped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "papers_skipped_total",
				Help:      "Total number of input records skipped",
			},
		),
	}

	c.registry.MustRegister(
		c.QueryDuration,
		c.QueryResults,
		c.HTTPRequests,
		c.ItemsWritten,
		c.PapersSkipped,
		collectors.NewGoCollector(),
	)
	return c
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// AddWritten adds a tally of written projections to ItemsWritten.
func (c *Collector) AddWritten(t types.Tally) {
	c.ItemsWritten.WithLabelValues(string(types.KindCategory)).Add(float64(t.Category))
	c.ItemsWritten.WithLabelValues(string(types.KindAuthor)).Add(float64(t.Author))
	c.ItemsWritten.WithLabelValues(string(types.KindID)).Add(float64(t.ID))
	c.ItemsWritten.WithLabelValues(string(types.KindKeyword)).Add(float64(t.Keyword))
}
