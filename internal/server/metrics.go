package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nunggu_bedug_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nunggu_bedug_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	scheduleLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nunggu_bedug_schedule_cache_lookups_total",
			Help: "Schedule cache lookups by result.",
		},
		[]string{"result"},
	)

	scheduleFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nunggu_bedug_schedule_failures_total",
			Help: "Requests for which no provider produced a schedule.",
		},
	)

	activeStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nunggu_bedug_countdown_streams",
			Help: "Open countdown websocket streams.",
		},
	)
)

// ObserveCacheLookup records a schedule cache hit or miss. It matches the
// provider.Cached Observe hook.
func ObserveCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	scheduleLookups.WithLabelValues(result).Inc()
}
