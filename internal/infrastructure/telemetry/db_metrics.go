package telemetry

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBMetrics records query latency and connection pool usage
type DBMetrics struct {
	queries  metric.Int64Counter
	errors   metric.Int64Counter
	duration metric.Float64Histogram
	pool     metric.Registration
}

type metricsStartKey struct{}

// RegisterDBMetrics instruments db with query counters and pool gauges read
// from sql.DB stats at collection time
func RegisterDBMetrics(db *gorm.DB, meter metric.Meter, logger *zap.Logger) (*DBMetrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &DBMetrics{}
	var err error
	if m.queries, err = meter.Int64Counter("db_query_total",
		metric.WithDescription("Database statements by operation and table"),
		metric.WithUnit("{query}")); err != nil {
		return nil, err
	}
	if m.errors, err = meter.Int64Counter("db_query_errors_total",
		metric.WithDescription("Failed database statements"),
		metric.WithUnit("{query}")); err != nil {
		return nil, err
	}
	if m.duration, err = meter.Float64Histogram("db_query_duration_seconds",
		metric.WithDescription("Database statement latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(DBDurationBuckets...)); err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	inUse, err := meter.Int64ObservableGauge("db_pool_connections_in_use", metric.WithUnit("{connection}"))
	if err != nil {
		return nil, err
	}
	idle, err := meter.Int64ObservableGauge("db_pool_connections_idle", metric.WithUnit("{connection}"))
	if err != nil {
		return nil, err
	}
	m.pool, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(inUse, int64(stats.InUse))
		o.ObserveInt64(idle, int64(stats.Idle))
		return nil
	}, inUse, idle)
	if err != nil {
		return nil, err
	}

	before := func(tx *gorm.DB) {
		if tx.Statement.Context != nil {
			tx.Statement.Context = context.WithValue(tx.Statement.Context, metricsStartKey{}, time.Now())
		}
	}
	if err := registerAround(db, "installments_metrics", before, m.record); err != nil {
		return nil, err
	}

	logger.Info("database metrics registered")
	return m, nil
}

func (m *DBMetrics) record(tx *gorm.DB) {
	ctx := tx.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	attrs := metric.WithAttributes(
		attribute.String("db.operation", operationOf(tx.Statement.SQL.String())),
		attribute.String("db.table", tx.Statement.Table),
	)

	m.queries.Add(ctx, 1, attrs)
	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		m.errors.Add(ctx, 1, attrs)
	}
	if start, ok := ctx.Value(metricsStartKey{}).(time.Time); ok {
		m.duration.Record(ctx, time.Since(start).Seconds(), attrs)
	}
}

// Stop unregisters the pool gauge callback
func (m *DBMetrics) Stop() error {
	if m == nil || m.pool == nil {
		return nil
	}
	return m.pool.Unregister()
}

func operationOf(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "OTHER"
	}
	switch word := strings.ToUpper(fields[0]); word {
	case "SELECT", "INSERT", "UPDATE", "DELETE":
		return word
	}
	return "OTHER"
}
