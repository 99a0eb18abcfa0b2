package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/installments/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type httpMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
	active   metric.Int64UpDownCounter
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	requests, err := meter.Int64Counter("http_server_request_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("http_server_request_duration_seconds",
		metric.WithDescription("HTTP request latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(telemetry.HTTPDurationBuckets...))
	if err != nil {
		return nil, err
	}
	active, err := meter.Int64UpDownCounter("http_server_active_requests",
		metric.WithDescription("Requests currently being served"),
		metric.WithUnit("{request}"))
	if err != nil {
		return nil, err
	}
	return &httpMetrics{requests: requests, duration: duration, active: active}, nil
}

// HTTPMetrics records request count, latency and concurrency per route
// pattern. Instruments that cannot be created leave a pass-through handler.
func HTTPMetrics(meter metric.Meter) gin.HandlerFunc {
	m, err := newHTTPMetrics(meter)
	if err != nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		m.active.Add(ctx, 1)

		c.Next()

		m.active.Add(ctx, -1)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		base := []attribute.KeyValue{
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
		}
		m.requests.Add(ctx, 1, metric.WithAttributes(append(base, attribute.Int("http.status_code", c.Writer.Status()))...))
		m.duration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(base...))
	}
}
