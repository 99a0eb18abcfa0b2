package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracing starts a server span per request through otelgin. Disabled
// tracing installs a pass-through handler.
func Tracing(serviceName string, enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return otelgin.Middleware(serviceName)
}

// SpanEnricher tags the request span with the request id and the caller, and
// marks 5xx responses as errors. It runs after JWTAuth.
func SpanEnricher() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}

		attrs := []attribute.KeyValue{attribute.String("request_id", GetRequestID(c))}
		if userID := GetJWTUserID(c); userID != "" {
			attrs = append(attrs,
				attribute.String("user_id", userID),
				attribute.String("user_role", GetJWTRole(c)))
		}
		span.SetAttributes(attrs...)

		c.Next()

		if status := c.Writer.Status(); status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}
