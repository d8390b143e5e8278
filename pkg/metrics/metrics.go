package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "billetter_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	SeatSelections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billetter_seat_selections_total",
			Help: "Seat selection attempts by outcome.",
		},
		[]string{"outcome"},
	)

	PaymentsInitiated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "billetter_payments_initiated_total",
			Help: "Payments successfully initiated against the gateway.",
		},
	)

	PaymentsResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billetter_payments_resolved_total",
			Help: "Payment resolutions by terminal status.",
		},
		[]string{"status"},
	)

	CircuitBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "billetter_payment_circuit_breaker_state",
			Help: "Payment gateway circuit breaker state (0=closed, 1=half-open, 2=open).",
		},
	)

	CleanupItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billetter_cleanup_items_total",
			Help: "Records driven to a terminal state by the cleanup service.",
		},
		[]string{"category"},
	)
)

// Handler exposes the Prometheus registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// Middleware records per-request latency labelled by route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}
