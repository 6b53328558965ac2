package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPMetrics holds the collectors recording HTTP traffic of one service
type HTTPMetrics struct {
	ServiceName string

	requests         *prometheus.CounterVec
	duration         *prometheus.HistogramVec
	statusOK         *prometheus.CounterVec
	statusClientErr  *prometheus.CounterVec
	statusServerErr  *prometheus.CounterVec
	statusByCategory *prometheus.CounterVec
}

// NewHTTPMetrics creates the HTTP collectors for a service and registers them on reg.
// A nil reg registers on the default Prometheus registry.
func NewHTTPMetrics(serviceName string, reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &HTTPMetrics{
		ServiceName: serviceName,
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"service", "method", "path", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"service", "method", "path", "status"},
		),
		statusOK: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_status_2xx_total",
				Help: "Total number of 2xx (success) responses",
			},
			[]string{"service"},
		),
		statusClientErr: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_status_4xx_total",
				Help: "Total number of 4xx (client error) responses",
			},
			[]string{"service"},
		),
		statusServerErr: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_status_5xx_total",
				Help: "Total number of 5xx (server error) responses",
			},
			[]string{"service"},
		),
		statusByCategory: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_status_category_total",
				Help: "Total number of responses by status category (2xx, 4xx, 5xx)",
			},
			[]string{"service", "category", "method", "path"},
		),
	}

	reg.MustRegister(
		m.requests,
		m.duration,
		m.statusOK,
		m.statusClientErr,
		m.statusServerErr,
		m.statusByCategory,
	)
	return m
}

// incrementStatusCounter increments the appropriate status counter based on the HTTP status code
func (m *HTTPMetrics) incrementStatusCounter(status int, method, path string) {
	category := ""

	switch {
	case status >= 200 && status < 300:
		m.statusOK.WithLabelValues(m.ServiceName).Inc()
		category = "2xx"
	case status >= 400 && status < 500:
		m.statusClientErr.WithLabelValues(m.ServiceName).Inc()
		category = "4xx"
	case status >= 500 && status < 600:
		m.statusServerErr.WithLabelValues(m.ServiceName).Inc()
		category = "5xx"
	}

	if category != "" {
		m.statusByCategory.WithLabelValues(m.ServiceName, category, method, path).Inc()
	}
}

// Middleware creates an Echo middleware function that records HTTP request metrics
func (m *HTTPMetrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			method := c.Request().Method
			path := c.Path()
			statusStr := strconv.Itoa(status)

			m.requests.WithLabelValues(m.ServiceName, method, path, statusStr).Inc()
			m.incrementStatusCounter(status, method, path)
			m.duration.WithLabelValues(m.ServiceName, method, path, statusStr).Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// GetPrometheusHandler returns an HTTP handler for exposing Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}
