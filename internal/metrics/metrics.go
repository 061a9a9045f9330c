// Package metrics collects Prometheus metrics for catalog lookups, saved-book
// operations and HTTP requests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeSuccess  = "success"
	OutcomeError    = "error"
	OutcomeNotFound = "not_found"
	OutcomeInvalid  = "invalid"
)

// Recorder is what the service and HTTP layers report to.
type Recorder interface {
	ObserveCatalogLookup(provider, outcome string, duration time.Duration)
	ObserveFavouritesOperation(operation, outcome string)
	ObserveHTTPRequest(method, route string, status int)
}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	catalogLookups   *prometheus.CounterVec
	catalogLatency   prometheus.Histogram
	favouritesOps    *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	registryGatherer prometheus.Gatherer
}

// NewCollector registers the metrics on reg.
func NewCollector(reg *prometheus.Registry) *Collector {
	c := &Collector{
		catalogLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookinfo_catalog_lookups_total",
			Help: "Catalog title lookups by provider and outcome.",
		}, []string{"provider", "outcome"}),
		catalogLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bookinfo_catalog_lookup_duration_seconds",
			Help:    "Latency of catalog title lookups in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		favouritesOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookinfo_favourites_operations_total",
			Help: "Saved-book store operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookinfo_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		registryGatherer: reg,
	}

	reg.MustRegister(
		c.catalogLookups,
		c.catalogLatency,
		c.favouritesOps,
		c.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

func (c *Collector) ObserveCatalogLookup(provider, outcome string, duration time.Duration) {
	c.catalogLookups.WithLabelValues(provider, outcome).Inc()
	c.catalogLatency.Observe(duration.Seconds())
}

func (c *Collector) ObserveFavouritesOperation(operation, outcome string) {
	c.favouritesOps.WithLabelValues(operation, outcome).Inc()
}

func (c *Collector) ObserveHTTPRequest(method, route string, status int) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registryGatherer, promhttp.HandlerOpts{})
}

// Nop discards everything. It is used when METRICS_ENABLED is false.
type Nop struct{}

func (Nop) ObserveCatalogLookup(string, string, time.Duration) {}
func (Nop) ObserveFavouritesOperation(string, string)          {}
func (Nop) ObserveHTTPRequest(string, string, int)             {}

var (
	_ Recorder = (*Collector)(nil)
	_ Recorder = Nop{}
)
