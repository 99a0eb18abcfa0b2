package logger

import (
	"fmt"
	"os"
	"strings"

	"github.com/installments/backend/internal/infrastructure/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// Option customizes the logger built by New
type Option func(*options)

type options struct {
	fields []zap.Field
	sink   zapcore.WriteSyncer
}

// WithService stamps every entry with the service name and environment
func WithService(name, env string) Option {
	return func(o *options) {
		o.fields = append(o.fields, zap.String("service", name), zap.String("env", env))
	}
}

// WithSink overrides the configured output. Tests use it to capture entries.
func WithSink(ws zapcore.WriteSyncer) Option {
	return func(o *options) {
		o.sink = ws
	}
}

// New builds a zap logger from the log section of the configuration
func New(cfg config.LogConfig, opts ...Option) (*zap.Logger, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	sink := o.sink
	if sink == nil {
		var err error
		sink, err = openSink(cfg.Output)
		if err != nil {
			return nil, err
		}
	}

	core := zapcore.NewCore(newEncoder(cfg.Format), sink, ParseLevel(cfg.Level))
	return zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(o.fields...),
	), nil
}

// ParseLevel maps a configured level name to a zap level. Unknown names mean info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func newEncoder(format string) zapcore.Encoder {
	ec := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout(timeLayout),
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	if strings.EqualFold(format, "console") {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}

func openSink(output string) (zapcore.WriteSyncer, error) {
	switch strings.ToLower(output) {
	case "", "stdout":
		return zapcore.AddSync(os.Stdout), nil
	case "stderr":
		return zapcore.AddSync(os.Stderr), nil
	}

	file, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log output %q: %w", output, err)
	}
	return zapcore.AddSync(file), nil
}
