package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey    contextKey = "logger"
	requestIDKey contextKey = "request_id"
	userIDKey    contextKey = "user_id"
	userRoleKey  contextKey = "user_role"
)

// WithContext attaches logger to ctx
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger attached to ctx, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok && l != nil {
		return l
	}
	return zap.NewNop()
}

// WithRequestID records the request id on ctx and on the attached logger
func WithRequestID(ctx context.Context, requestID string) context.Context {
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	return WithContext(ctx, FromContext(ctx).With(zap.String("request_id", requestID)))
}

// WithUser records the authenticated caller on ctx and on the attached logger
func WithUser(ctx context.Context, userID, role string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	ctx = context.WithValue(ctx, userRoleKey, role)
	return WithContext(ctx, FromContext(ctx).With(zap.String("user_id", userID), zap.String("user_role", role)))
}

// RequestID returns the request id stored on ctx
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// User returns the caller id and role stored on ctx
func User(ctx context.Context) (userID, role string) {
	userID, _ = ctx.Value(userIDKey).(string)
	role, _ = ctx.Value(userRoleKey).(string)
	return userID, role
}

// TraceFields returns trace_id and span_id for the active span, if any
func TraceFields(ctx context.Context) []zap.Field {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}

// L returns the context logger correlated with the active span.
//
//	logger.L(ctx).Info("installment paid", zap.String("installment_id", id))
func L(ctx context.Context) *zap.Logger {
	l := FromContext(ctx)
	if fields := TraceFields(ctx); len(fields) > 0 {
		l = l.With(fields...)
	}
	return l
}
