package logger

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/installments/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newBufferLogger(t *testing.T, level string) (*bytes.Buffer, *zap.Logger) {
	t.Helper()
	buf := &bytes.Buffer{}
	l, err := New(config.LogConfig{Level: level, Format: "json"}, WithSink(zapcore.AddSync(buf)))
	require.NoError(t, err)
	return buf, l
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal(line, &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{" error ", zapcore.ErrorLevel},
		{"verbose", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNew_JSONWithServiceFields(t *testing.T) {
	buf := &bytes.Buffer{}
	l, err := New(config.LogConfig{Level: "info", Format: "json"},
		WithSink(zapcore.AddSync(buf)),
		WithService("installments-backend", "test"),
	)
	require.NoError(t, err)

	l.Debug("hidden")
	l.Info("contract created")
	require.NoError(t, l.Sync())

	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "contract created", entries[0]["msg"])
	assert.Equal(t, "info", entries[0]["level"])
	assert.Equal(t, "installments-backend", entries[0]["service"])
	assert.Equal(t, "test", entries[0]["env"])
	assert.Contains(t, entries[0], "caller")
}

func TestNew_ConsoleFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	l, err := New(config.LogConfig{Level: "debug", Format: "console"}, WithSink(zapcore.AddSync(buf)))
	require.NoError(t, err)

	l.Debug("sweeping overdue installments")
	assert.Contains(t, buf.String(), "sweeping overdue installments")
	assert.NotEqual(t, byte('{'), buf.Bytes()[0])
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := New(config.LogConfig{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)
	l.Info("written to file")
	require.NoError(t, l.Sync())
	assert.FileExists(t, path)
}

func TestNew_UnwritableOutput(t *testing.T) {
	_, err := New(config.LogConfig{Output: filepath.Join(t.TempDir(), "missing", "dir", "app.log")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open log output")
}
