package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the API's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reearth",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "reearth",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	ordersPlaced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reearth",
			Subsystem: "orders",
			Name:      "placed_total",
			Help:      "Point orders by outcome.",
		},
		[]string{"outcome"},
	)

	pointsPosted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reearth",
			Subsystem: "points",
			Name:      "posted_total",
			Help:      "Sum of absolute point deltas written to the ledger, by reason.",
		},
		[]string{"reason"},
	)

	donationTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reearth",
			Subsystem: "donations",
			Name:      "transitions_total",
			Help:      "Donation status transitions.",
		},
		[]string{"from", "to"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		ordersPlaced,
		pointsPosted,
		donationTransitions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler exposes the registry for scraping.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request count and latency keyed by the matched route.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			method := c.Request().Method
			httpRequests.WithLabelValues(method, path, strconv.Itoa(c.Response().Status)).Inc()
			httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}

func RecordOrder(outcome string) {
	ordersPlaced.WithLabelValues(outcome).Inc()
}

func RecordPoints(reason string, delta int64) {
	if delta < 0 {
		delta = -delta
	}
	pointsPosted.WithLabelValues(reason).Add(float64(delta))
}

func RecordDonationTransition(from, to string) {
	donationTransitions.WithLabelValues(from, to).Inc()
}
