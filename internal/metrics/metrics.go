// Package metrics collects Prometheus metrics for upstream calls and the auth endpoints.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements the recorder interfaces of the riot client and the API layer.
type Collector struct {
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	authEvents       *prometheus.CounterVec
	rateLimited      *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "splinter_upstream_requests_total",
			Help: "Riot API requests by routing and response status (0 for transport failures).",
		}, []string{"routing", "status_code"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "splinter_upstream_request_duration_seconds",
			Help:    "Riot API request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"routing"}),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "splinter_auth_events_total",
			Help: "Register, login and logout attempts by outcome.",
		}, []string{"event", "outcome"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "splinter_rate_limited_total",
			Help: "Requests rejected by the per-client rate limiter.",
		}, []string{"route"}),
	}

	reg.MustRegister(
		c.upstreamRequests,
		c.upstreamLatency,
		c.authEvents,
		c.rateLimited,
	)

	return c
}

// RecordUpstreamCall records one upstream request.
func (c *Collector) RecordUpstreamCall(routing string, statusCode int, d time.Duration) {
	c.upstreamRequests.WithLabelValues(routing, strconv.Itoa(statusCode)).Inc()
	c.upstreamLatency.WithLabelValues(routing).Observe(d.Seconds())
}

// RecordAuthEvent records the outcome of an auth operation.
func (c *Collector) RecordAuthEvent(event, outcome string) {
	c.authEvents.WithLabelValues(event, outcome).Inc()
}

// RecordRateLimited records a request rejected by the rate limiter.
func (c *Collector) RecordRateLimited(route string) {
	c.rateLimited.WithLabelValues(route).Inc()
}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
