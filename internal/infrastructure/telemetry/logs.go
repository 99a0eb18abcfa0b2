package telemetry

import (
	"context"
	"fmt"

	"github.com/installments/backend/internal/infrastructure/config"
	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerProvider owns the SDK log provider that receives bridged zap entries
type LoggerProvider struct {
	provider *sdklog.LoggerProvider
	name     string
	logger   *zap.Logger
}

// NewLoggerProvider exports log records over OTLP gRPC when both telemetry
// and log export are enabled
func NewLoggerProvider(ctx context.Context, cfg config.TelemetryConfig, logger *zap.Logger) (*LoggerProvider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	lp := &LoggerProvider{name: cfg.ServiceName, logger: logger}
	if !cfg.Enabled || !cfg.LogsEnabled {
		return lp, nil
	}

	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlploggrpc.WithInsecure())
	}
	exporter, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create log exporter: %w", err)
	}

	res, err := newResource(cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	lp.provider = sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	)
	global.SetLoggerProvider(lp.provider)

	logger.Info("log export enabled", zap.String("collector_endpoint", cfg.CollectorEndpoint))
	return lp, nil
}

// Enabled reports whether log records are exported
func (lp *LoggerProvider) Enabled() bool {
	return lp.provider != nil
}

// Bridge returns log writing to its own sinks and to the collector, the
// latter only at level and above. It returns log unchanged when export is off.
func (lp *LoggerProvider) Bridge(log *zap.Logger, level zapcore.Level) *zap.Logger {
	if lp.provider == nil {
		return log
	}
	otelCore := &levelFilterCore{
		Core:     otelzap.NewCore(lp.name, otelzap.WithLoggerProvider(lp.provider)),
		minLevel: level,
	}
	return log.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, otelCore)
	}))
}

// Shutdown flushes pending records
func (lp *LoggerProvider) Shutdown(ctx context.Context) error {
	if lp.provider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := lp.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown logger provider: %w", err)
	}
	return nil
}

// levelFilterCore drops entries below minLevel; the otelzap core accepts every level
type levelFilterCore struct {
	zapcore.Core
	minLevel zapcore.Level
}

func (c *levelFilterCore) Enabled(lvl zapcore.Level) bool {
	return lvl >= c.minLevel && c.Core.Enabled(lvl)
}

func (c *levelFilterCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(entry.Level) {
		return ce
	}
	return c.Core.Check(entry, ce)
}

func (c *levelFilterCore) With(fields []zapcore.Field) zapcore.Core {
	return &levelFilterCore{Core: c.Core.With(fields), minLevel: c.minLevel}
}
