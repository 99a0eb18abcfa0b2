package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

func sqlFn(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestGormLogger_Trace(t *testing.T) {
	t.Run("error is logged with statement", func(t *testing.T) {
		buf, base := newBufferLogger(t, "debug")
		gl := NewGormLogger(base, gormlogger.Warn)

		gl.Trace(context.Background(), time.Now(), sqlFn("UPDATE installments SET status = 'paid'", 0), errors.New("deadlock"))

		entries := decodeLines(t, buf)
		require.Len(t, entries, 1)
		assert.Equal(t, "sql error", entries[0]["msg"])
		assert.Equal(t, "deadlock", entries[0]["error"])
		assert.Equal(t, "gorm", entries[0]["logger"])
		assert.Contains(t, entries[0]["sql"], "UPDATE installments")
	})

	t.Run("record not found is silent", func(t *testing.T) {
		buf, base := newBufferLogger(t, "debug")
		gl := NewGormLogger(base, gormlogger.Warn)
		gl.Trace(context.Background(), time.Now(), sqlFn("SELECT 1", 0), gormlogger.ErrRecordNotFound)
		assert.Empty(t, buf.String())
	})

	t.Run("slow query is a warning", func(t *testing.T) {
		buf, base := newBufferLogger(t, "debug")
		gl := NewGormLogger(base, gormlogger.Warn, WithSlowThreshold(time.Millisecond), WithSQL(false))
		gl.Trace(context.Background(), time.Now().Add(-time.Second), sqlFn("SELECT * FROM contracts", 3), nil)

		entries := decodeLines(t, buf)
		require.Len(t, entries, 1)
		assert.Equal(t, "slow sql", entries[0]["msg"])
		assert.NotContains(t, entries[0], "sql")
	})

	t.Run("normal query only at info", func(t *testing.T) {
		buf, base := newBufferLogger(t, "debug")
		NewGormLogger(base, gormlogger.Warn).Trace(context.Background(), time.Now(), sqlFn("SELECT 1", 1), nil)
		assert.Empty(t, buf.String())

		NewGormLogger(base, gormlogger.Info).Trace(WithRequestID(context.Background(), "req-5"), time.Now(), sqlFn("SELECT 1", 1), nil)
		entries := decodeLines(t, buf)
		require.Len(t, entries, 1)
		assert.Equal(t, "req-5", entries[0]["request_id"])
	})

	t.Run("silent logs nothing", func(t *testing.T) {
		buf, base := newBufferLogger(t, "debug")
		gl := NewGormLogger(base, gormlogger.Info).LogMode(gormlogger.Silent)
		gl.Trace(context.Background(), time.Now(), sqlFn("SELECT 1", 1), errors.New("boom"))
		assert.Empty(t, buf.String())
	})
}

func TestGormLogger_Messages(t *testing.T) {
	buf, base := newBufferLogger(t, "debug")
	gl := NewGormLogger(base, gormlogger.Warn)

	gl.Info(context.Background(), "hidden %d", 1)
	gl.Warn(context.Background(), "pool low: %d", 2)
	gl.Error(context.Background(), "failed: %s", "x")

	entries := decodeLines(t, buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "pool low: 2", entries[0]["msg"])
	assert.Equal(t, "failed: x", entries[1]["msg"])
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("warn"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("other"))
}
