package telemetry

import (
	"fmt"
	"os"
	"runtime"
	"sync"

	otelpyroscope "github.com/grafana/otel-profiling-go"
	"github.com/grafana/pyroscope-go"
	"github.com/installments/backend/internal/infrastructure/config"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// Profiler pushes continuous profiles to Pyroscope
type Profiler struct {
	profiler *pyroscope.Profiler
	logger   *zap.Logger
	once     sync.Once
}

// NewProfiler starts profiling when cfg.Profiling is enabled. A disabled
// profiler is a no-op.
func NewProfiler(cfg config.TelemetryConfig, logger *zap.Logger) (*Profiler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Profiler{logger: logger}
	pc := cfg.Profiling
	if !pc.Enabled {
		return p, nil
	}
	if pc.ServerAddress == "" {
		return nil, fmt.Errorf("profiler server address is required when profiling is enabled")
	}

	if pc.MutexProfileFraction > 0 {
		runtime.SetMutexProfileFraction(pc.MutexProfileFraction)
	}
	if pc.BlockProfileRate > 0 {
		runtime.SetBlockProfileRate(pc.BlockProfileRate)
	}

	tags := map[string]string{}
	if hostname := os.Getenv("HOSTNAME"); hostname != "" {
		tags["hostname"] = hostname
	}

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName:   cfg.ServiceName,
		ServerAddress:     pc.ServerAddress,
		BasicAuthUser:     pc.BasicAuthUser,
		BasicAuthPassword: pc.BasicAuthPassword,
		Logger:            pyroscopeLogger{logger.Named("pyroscope").Sugar()},
		Tags:              tags,
		ProfileTypes:      profileTypes(pc),
	})
	if err != nil {
		return nil, fmt.Errorf("start profiler: %w", err)
	}
	p.profiler = profiler

	logger.Info("profiling enabled", zap.String("server_address", pc.ServerAddress))
	return p, nil
}

func profileTypes(pc config.ProfilingConfig) []pyroscope.ProfileType {
	types := []pyroscope.ProfileType{
		pyroscope.ProfileCPU,
		pyroscope.ProfileAllocObjects,
		pyroscope.ProfileAllocSpace,
		pyroscope.ProfileInuseObjects,
		pyroscope.ProfileInuseSpace,
		pyroscope.ProfileGoroutines,
	}
	if pc.MutexProfileFraction > 0 {
		types = append(types, pyroscope.ProfileMutexCount, pyroscope.ProfileMutexDuration)
	}
	if pc.BlockProfileRate > 0 {
		types = append(types, pyroscope.ProfileBlockCount, pyroscope.ProfileBlockDuration)
	}
	return types
}

// Enabled reports whether profiles are pushed
func (p *Profiler) Enabled() bool {
	return p.profiler != nil
}

// LinkSpans tags profiles with the span that was running so a trace links to
// its CPU samples. It replaces the global tracer provider and is a no-op
// unless both profiling and tracing are on.
func (p *Profiler) LinkSpans(tp *TracerProvider) {
	if p.profiler == nil || tp == nil || tp.provider == nil {
		return
	}
	otel.SetTracerProvider(otelpyroscope.NewTracerProvider(tp.provider))
}

// Stop flushes and stops the profiler. Safe to call more than once.
func (p *Profiler) Stop() error {
	var err error
	p.once.Do(func() {
		if p.profiler == nil {
			return
		}
		if stopErr := p.profiler.Stop(); stopErr != nil {
			err = fmt.Errorf("stop profiler: %w", stopErr)
		}
	})
	return err
}

type pyroscopeLogger struct {
	s *zap.SugaredLogger
}

func (l pyroscopeLogger) Infof(format string, args ...any)  { l.s.Infof(format, args...) }
func (l pyroscopeLogger) Debugf(format string, args ...any) { l.s.Debugf(format, args...) }
func (l pyroscopeLogger) Errorf(format string, args ...any) { l.s.Errorf(format, args...) }
