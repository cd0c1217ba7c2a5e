package middlewares

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	businessOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_operations_total",
			Help: "Total number of business operations by outcome",
		},
		[]string{"operation", "status"},
	)

	invoiceRenders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_invoice_renders_total",
			Help: "Invoice render attempts by outcome",
		},
		[]string{"outcome"},
	)

	invoiceEmails = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_invoice_emails_total",
			Help: "Invoice e-mail attempts by outcome",
		},
		[]string{"outcome"},
	)

	jobDispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_job_dispatches_total",
			Help: "Invoice jobs handed to a queue, by backend and outcome",
		},
		[]string{"backend", "status"},
	)
)

// PrometheusMiddleware records request count and latency and writes one
// access log line per request.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		duration := time.Since(start)
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration.Seconds())

		slog.Debug("Request served",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"duration", duration,
		)
	}
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordOperation counts a business operation such as checkout or
// refund_request.
func RecordOperation(operation string, success bool) {
	businessOperations.WithLabelValues(operation, outcome(success)).Inc()
}

// RecordInvoiceRender takes success, timeout, too_large or error.
func RecordInvoiceRender(result string) {
	invoiceRenders.WithLabelValues(result).Inc()
}

func RecordInvoiceEmail(result string) {
	invoiceEmails.WithLabelValues(result).Inc()
}

func RecordDispatch(backend string, success bool) {
	jobDispatches.WithLabelValues(backend, outcome(success)).Inc()
}
