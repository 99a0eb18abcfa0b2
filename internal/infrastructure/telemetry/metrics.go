package telemetry

import (
	"context"
	"fmt"

	"github.com/installments/backend/internal/infrastructure/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

// MeterProvider owns the SDK meter provider for the process lifetime
type MeterProvider struct {
	provider *sdkmetric.MeterProvider
	logger   *zap.Logger
}

// NewMeterProvider pushes metrics over OTLP gRPC on cfg.MetricsInterval when
// telemetry is enabled
func NewMeterProvider(ctx context.Context, cfg config.TelemetryConfig, logger *zap.Logger) (*MeterProvider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	mp := &MeterProvider{logger: logger}
	if !cfg.Enabled {
		logger.Info("metrics disabled")
		return mp, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create metric exporter: %w", err)
	}

	res, err := newResource(cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if cfg.MetricsInterval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.MetricsInterval))
	}
	mp.provider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
	)
	otel.SetMeterProvider(mp.provider)

	logger.Info("metrics enabled",
		zap.String("collector_endpoint", cfg.CollectorEndpoint),
		zap.Duration("interval", cfg.MetricsInterval),
	)
	return mp, nil
}

// Meter returns a named meter
func (mp *MeterProvider) Meter(name string) metric.Meter {
	if mp.provider == nil {
		return otel.GetMeterProvider().Meter(name)
	}
	return mp.provider.Meter(name)
}

// Shutdown flushes pending metrics
func (mp *MeterProvider) Shutdown(ctx context.Context) error {
	if mp.provider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := mp.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown meter provider: %w", err)
	}
	mp.logger.Info("meter provider stopped")
	return nil
}

// Bucket boundaries in seconds
var (
	HTTPDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	DBDurationBuckets   = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}
)
