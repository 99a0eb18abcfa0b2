package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestGinMiddleware_LogsByStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		level  string
	}{
		{"ok", http.StatusOK, "info"},
		{"client error", http.StatusConflict, "warn"},
		{"server error", http.StatusInternalServerError, "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, base := newBufferLogger(t, "info")
			r := gin.New()
			r.Use(func(c *gin.Context) { c.Set(RequestIDKey, "req-1"); c.Next() })
			r.Use(GinMiddleware(base))
			r.GET("/api/v1/contracts/:id", func(c *gin.Context) { c.Status(tt.status) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/contracts/42?expand=installments", nil))

			entries := decodeLines(t, buf)
			require.Len(t, entries, 1)
			e := entries[0]
			assert.Equal(t, tt.level, e["level"])
			assert.Equal(t, "req-1", e["request_id"])
			assert.Equal(t, "GET", e["method"])
			assert.Equal(t, "/api/v1/contracts/42", e["path"])
			assert.Equal(t, "/api/v1/contracts/:id", e["route"])
			assert.Equal(t, "expand=installments", e["query"])
			assert.EqualValues(t, tt.status, e["status"])
		})
	}
}

func TestGinMiddleware_ExposesRequestLogger(t *testing.T) {
	buf, base := newBufferLogger(t, "info")
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(RequestIDKey, "req-7"); c.Next() })
	r.Use(GinMiddleware(base))
	r.GET("/", func(c *gin.Context) {
		assert.Equal(t, "req-7", RequestID(c.Request.Context()))
		FromContext(c.Request.Context()).Info("from handler")
		GetGinLogger(c).Info("from gin")
		c.Status(http.StatusNoContent)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	entries := decodeLines(t, buf)
	require.Len(t, entries, 3)
	for _, e := range entries[:2] {
		assert.Equal(t, "req-7", e["request_id"])
	}
}

func TestGetGinLogger_NotSet(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.NotNil(t, GetGinLogger(c))
}

func TestRecovery_ReturnsErrorEnvelope(t *testing.T) {
	buf, base := newBufferLogger(t, "info")
	r := gin.New()
	r.Use(Recovery(base))
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"error":{"code":"INTERNAL_ERROR","message":"Internal server error"}}`, w.Body.String())

	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "panic recovered", entries[0]["msg"])
	assert.Equal(t, "kaboom", entries[0]["panic"])
}
