package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/installments/backend/internal/domain/shared"
	"github.com/installments/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Pinger is a dependency the readiness probe checks
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a function to Pinger
type PingFunc func(ctx context.Context) error

// PingContext calls f
func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// SystemHandler serves the liveness, readiness and info endpoints
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	clock     shared.Clock
	startTime time.Time
	checks    map[string]Pinger
	timeout   time.Duration
}

// NewSystemHandler creates a new SystemHandler. checks are pinged by Ready,
// keyed by the name reported in the response.
func NewSystemHandler(name, version string, clock shared.Clock, checks map[string]Pinger) *SystemHandler {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &SystemHandler{
		name:      name,
		version:   version,
		clock:     clock,
		startTime: clock.Now(),
		checks:    checks,
		timeout:   2 * time.Second,
	}
}

// SystemInfoResponse describes the running binary
type SystemInfoResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// Info handles GET /api/v1/system/info
func (h *SystemHandler) Info(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    h.clock.Now().Sub(h.startTime).Round(time.Second).String(),
	})
}

// Health handles GET /health. It only reports that the process is serving.
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   h.clock.Now().Format(time.RFC3339),
	})
}

// Ready handles GET /ready. Any failing check turns the whole probe 503.
func (h *SystemHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check.PingContext(ctx); err != nil {
			logger.L(ctx).Warn("readiness check failed", zap.String("check", name), zap.Error(err))
			results[name] = "error"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "unavailable"
	}
	c.JSON(status, gin.H{
		"status": state,
		"time":   h.clock.Now().Format(time.RFC3339),
		"checks": results,
	})
}
