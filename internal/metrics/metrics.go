package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulselog_http_requests_total",
		Help: "Total number of HTTP requests processed.",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pulselog_http_request_duration_seconds",
		Help:    "Histogram of latencies for HTTP requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	calendarCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulselog_calendar_api_calls_total",
		Help: "Calls made to the Google Calendar API by operation and status.",
	}, []string{"operation", "status"})

	calendarCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pulselog_calendar_api_call_duration_seconds",
		Help:    "Latency of Google Calendar API calls, including rate limiter wait.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	calendarSyncItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulselog_calendar_sync_items_total",
		Help: "Readings processed by calendar sync and rebuild runs.",
	}, []string{"run", "outcome"})
)

// Middleware records request count and latency per matched route.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fiberErr, ok := err.(*fiber.Error); ok {
				status = fiberErr.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		route := c.Route().Path
		if route == "" {
			route = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler exposes the Prometheus metrics endpoint.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

// ObserveCalendarCall records one outgoing Calendar API request. status is 0
// when no response was received.
func ObserveCalendarCall(operation string, status int, err error, duration time.Duration) {
	label := strconv.Itoa(status)
	if status == 0 && err != nil {
		label = "error"
	}
	calendarCallsTotal.WithLabelValues(operation, label).Inc()
	calendarCallDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func ObserveSyncItem(run string, outcome string) {
	calendarSyncItemsTotal.WithLabelValues(run, outcome).Inc()
}
