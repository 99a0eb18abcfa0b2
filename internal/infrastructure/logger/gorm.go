package logger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger routes gorm's logging through zap
type GormLogger struct {
	logger        *zap.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
	logSQL        bool
}

// GormOption configures a GormLogger
type GormOption func(*GormLogger)

// WithSlowThreshold sets the duration past which a query is logged as slow.
// Zero disables slow query logging.
func WithSlowThreshold(d time.Duration) GormOption {
	return func(l *GormLogger) { l.slowThreshold = d }
}

// WithSQL controls whether statements are included in entries
func WithSQL(enabled bool) GormOption {
	return func(l *GormLogger) { l.logSQL = enabled }
}

// NewGormLogger creates a gorm logger backed by base
func NewGormLogger(base *zap.Logger, level gormlogger.LogLevel, opts ...GormOption) *GormLogger {
	l := &GormLogger{
		logger:        base.Named("gorm"),
		level:         level,
		slowThreshold: 200 * time.Millisecond,
		logSQL:        true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

var _ gormlogger.Interface = (*GormLogger)(nil)

// LogMode implements gormlogger.Interface
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

// Info implements gormlogger.Interface
func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Info {
		l.scoped(ctx).Sugar().Infof(msg, data...)
	}
}

// Warn implements gormlogger.Interface
func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Warn {
		l.scoped(ctx).Sugar().Warnf(msg, data...)
	}
}

// Error implements gormlogger.Interface
func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Error {
		l.scoped(ctx).Sugar().Errorf(msg, data...)
	}
}

// Trace implements gormlogger.Interface. Record-not-found is expected by
// repositories and never logged as an error.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := []zap.Field{zap.Duration("elapsed", elapsed), zap.Int64("rows", rows)}
	if l.logSQL {
		fields = append(fields, zap.String("sql", sql))
	}
	log := l.scoped(ctx)

	switch {
	case err != nil && !errors.Is(err, gormlogger.ErrRecordNotFound) && l.level >= gormlogger.Error:
		log.Error("sql error", append(fields, zap.Error(err))...)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		log.Warn("slow sql", append(fields, zap.Duration("threshold", l.slowThreshold))...)
	case l.level >= gormlogger.Info:
		log.Debug("sql", fields...)
	}
}

func (l *GormLogger) scoped(ctx context.Context) *zap.Logger {
	log := l.logger
	if id := RequestID(ctx); id != "" {
		log = log.With(zap.String("request_id", id))
	}
	return log.With(TraceFields(ctx)...)
}

// MapGormLogLevel maps the application log level to a gorm level
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
