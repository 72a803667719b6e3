package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status", "service"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: []float64{0.1, 0.3, 0.5, 0.7, 1, 3, 5, 7, 10},
	}, []string{"method", "path", "service"})

	pageViews = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "page_views_total",
		Help: "Total number of page views",
	}, []string{"path", "service"})

	apiCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "api_calls_total",
		Help: "Total number of API calls",
	}, []string{"endpoint", "method", "status", "service"})
)

// Middleware records request counts and latency per route. View routes
// additionally count as page views, forwarded API routes as API calls.
func Middleware(service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// The registered pattern keeps label cardinality bounded; raw
		// paths would mint a label per event id.
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(method, path, status, service).Inc()
		httpRequestDuration.WithLabelValues(method, path, service).Observe(time.Since(start).Seconds())

		switch {
		case strings.HasPrefix(path, "/views/"):
			pageViews.WithLabelValues(path, service).Inc()
		case strings.HasPrefix(path, "/api/"):
			apiCalls.WithLabelValues(c.Request.URL.Path, method, status, service).Inc()
		}
	}
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
