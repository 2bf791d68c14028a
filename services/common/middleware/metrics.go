package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	awspkg "github.com/groceazy/backend/pkg/aws"
)

const metricsTimeout = 5 * time.Second

// MetricsMiddleware records request count, latency and error counts per
// route. Publishing happens off the request goroutine.
func MetricsMiddleware(metrics awspkg.MetricsRecorder, serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil || !metrics.IsEnabled() {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)
		status := c.Writer.Status()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		dimensions := map[string]string{
			"Service": serviceName,
			"Method":  c.Request.Method,
			"Route":   route,
			"Status":  statusCodeToRange(status),
		}

		go recordRequest(metrics, dimensions, status, duration)
	}
}

func recordRequest(metrics awspkg.MetricsRecorder, dimensions map[string]string, status int, duration time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), metricsTimeout)
	defer cancel()

	_ = metrics.RecordCount(ctx, awspkg.MetricHTTPRequests, dimensions)
	_ = metrics.RecordLatency(ctx, awspkg.MetricHTTPLatency, duration, dimensions)

	switch {
	case status >= 500:
		_ = metrics.RecordCount(ctx, awspkg.MetricHTTPErrors, dimensions)
		_ = metrics.RecordCount(ctx, awspkg.MetricHTTP5xx, dimensions)
	case status >= 400:
		_ = metrics.RecordCount(ctx, awspkg.MetricHTTPErrors, dimensions)
		_ = metrics.RecordCount(ctx, awspkg.MetricHTTP4xx, dimensions)
	}
}

func statusCodeToRange(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "2xx"
	case statusCode >= 300 && statusCode < 400:
		return "3xx"
	case statusCode >= 400 && statusCode < 500:
		return "4xx"
	case statusCode >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
