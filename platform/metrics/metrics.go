// Package metrics exposes Prometheus collectors for HTTP traffic, match
// generation and outreach dispatch.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	outreachLeadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outreach_leads_total",
			Help: "Leads processed by the bulk dispatcher, by outcome",
		},
		[]string{"outcome"},
	)

	outreachBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outreach_batches_total",
			Help: "Outreach batches finished, by final state",
		},
		[]string{"state"},
	)

	matchesGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matches_generated_total",
			Help: "New matches persisted, by category",
		},
		[]string{"category"},
	)

	providerErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messaging_provider_errors_total",
			Help: "Failed calls to the messaging provider",
		},
		[]string{"reason"},
	)
)

// Middleware records request counts and latency keyed by the route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func RecordLeadOutcome(outcome string) {
	outreachLeadsTotal.WithLabelValues(outcome).Inc()
}

func RecordBatchFinished(state string) {
	outreachBatchesTotal.WithLabelValues(state).Inc()
}

func RecordMatchesGenerated(category string, n int) {
	if n > 0 {
		matchesGeneratedTotal.WithLabelValues(category).Add(float64(n))
	}
}

func RecordProviderError(reason string) {
	providerErrorsTotal.WithLabelValues(reason).Inc()
}
