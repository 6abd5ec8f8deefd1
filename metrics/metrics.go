// Package metrics provides Prometheus metrics for adbfm.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adbfm_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adbfm_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Bridge process metrics
	bridgeCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adbfm_bridge_commands_total",
			Help: "Total external commands run, by program subcommand and outcome",
		},
		[]string{"program", "subcommand", "status"},
	)

	bridgeCommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adbfm_bridge_command_duration_seconds",
			Help:    "External command duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
		},
		[]string{"program", "subcommand"},
	)

	parseSkipsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adbfm_parse_skipped_lines_total",
			Help: "Lines dropped by output parsers",
		},
		[]string{"parser"},
	)

	// Transfer metrics
	transfersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adbfm_transfers_total",
			Help: "Total device transfers, by direction and status",
		},
		[]string{"direction", "status"},
	)

	transferBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adbfm_transfer_bytes_total",
			Help: "Bytes moved between host and device",
		},
		[]string{"direction"},
	)

	thumbnailsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adbfm_thumbnails_total",
			Help: "Thumbnail requests, by method and status",
		},
		[]string{"method", "status"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordBridgeCommand records one external command invocation.
func RecordBridgeCommand(program, subcommand, status string, duration time.Duration) {
	bridgeCommandsTotal.WithLabelValues(program, subcommand, status).Inc()
	bridgeCommandDuration.WithLabelValues(program, subcommand).Observe(duration.Seconds())
}

// RecordParseSkip counts a line a parser could not use.
func RecordParseSkip(parser string) {
	parseSkipsTotal.WithLabelValues(parser).Inc()
}

// RecordTransfer records a pull, push or delete.
func RecordTransfer(direction, status string, bytes int64) {
	transfersTotal.WithLabelValues(direction, status).Inc()
	if bytes > 0 {
		transferBytes.WithLabelValues(direction).Add(float64(bytes))
	}
}

// RecordThumbnail records a thumbnail lookup or generation.
func RecordThumbnail(method string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	thumbnailsTotal.WithLabelValues(method, status).Inc()
}

// Middleware returns echo middleware that records request metrics by route.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			RecordHTTPRequest(c.Request().Method, route, status, time.Since(start))
			return err
		}
	}
}
