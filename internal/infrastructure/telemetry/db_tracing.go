package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/installments/backend/internal/infrastructure/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig controls query spans
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool
	SlowQueryThresh time.Duration
	DBName          string
	TracerProvider  trace.TracerProvider // nil means the global provider
}

// DBTracingConfigFrom derives query tracing settings from telemetry config
func DBTracingConfigFrom(cfg config.TelemetryConfig, dbName string) DBTracingConfig {
	return DBTracingConfig{
		Enabled:         cfg.Enabled && cfg.DBTraceEnabled,
		LogFullSQL:      cfg.DBLogFullSQL,
		SlowQueryThresh: cfg.DBSlowQueryThresh,
		DBName:          dbName,
	}
}

type queryStartKey struct{}

// RegisterDBTracing adds otelgorm spans to db and annotates them with table,
// row count, error status and a slow-query flag
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled {
		logger.Debug("database tracing disabled")
		return nil
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if cfg.TracerProvider != nil {
		opts = append(opts, otelgorm.WithTracerProvider(cfg.TracerProvider))
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	before := func(tx *gorm.DB) {
		if tx.Statement.Context != nil {
			tx.Statement.Context = context.WithValue(tx.Statement.Context, queryStartKey{}, time.Now())
		}
	}
	after := func(tx *gorm.DB) { annotateQuerySpan(tx, cfg.SlowQueryThresh) }
	if err := registerAround(db, "installments_tracing", before, after); err != nil {
		return err
	}

	logger.Info("database tracing enabled",
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
	)
	return nil
}

func annotateQuerySpan(tx *gorm.DB, slow time.Duration) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", tx.Statement.RowsAffected))
	if tx.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", tx.Statement.Table))
	}
	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		span.RecordError(tx.Error)
		span.SetStatus(codes.Error, tx.Error.Error())
	}
	if start, ok := ctx.Value(queryStartKey{}).(time.Time); ok {
		if elapsed := time.Since(start); elapsed > slow {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
		}
	}
}
