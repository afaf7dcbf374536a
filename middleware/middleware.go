// Package middleware provides the echo middleware every HTTP request passes
// through: CORS and Prometheus instrumentation, grounded on the teacher's
// middleware/middleware.go. The teacher's middleware also wires OpenTelemetry
// tracing and a Sentry-backed flight recorder; neither otel nor sentry is a
// dependency this corpus otherwise exercises, so both are left out rather
// than fabricated (see DESIGN.md).
package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jexdex/aggregator-engine/log"
)

// GoMiddleware holds the middleware's shared collaborators.
type GoMiddleware struct {
	allowedOrigin string
	logger        log.Logger
}

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aggregator_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path"},
	)

	requestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aggregator_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal)
	prometheus.MustRegister(requestLatency)
}

// InitMiddleware builds the middleware set. allowedOrigin configures CORS;
// an empty value allows any origin.
func InitMiddleware(allowedOrigin string, logger log.Logger) *GoMiddleware {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}
	return &GoMiddleware{allowedOrigin: allowedOrigin, logger: logger}
}

// CORS implements the teacher's single-origin CORS middleware.
func (m *GoMiddleware) CORS(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set("Access-Control-Allow-Origin", m.allowedOrigin)
		c.Response().Header().Set("Access-Control-Allow-Headers", "*")
		c.Response().Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		return next(c)
	}
}

// InstrumentMiddleware records a request counter and latency histogram per
// (method, path), grounded on the teacher's InstrumentMiddleware.
func (m *GoMiddleware) InstrumentMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		method := c.Request().Method
		path := c.Path()

		err := next(c)

		duration := time.Since(start)
		requestsTotal.WithLabelValues(method, path).Inc()
		requestLatency.WithLabelValues(method, path).Observe(duration.Seconds())

		return err
	}
}
