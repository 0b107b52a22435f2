package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger verifies connectivity of a backing dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to the Pinger interface.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler exposes liveness and readiness information.
type HealthHandler struct {
	startedAt time.Time
	logger    *zap.Logger
	checks    map[string]Pinger
}

// NewHealthHandler builds a new health handler instance.
func NewHealthHandler(log *zap.Logger) *HealthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &HealthHandler{
		startedAt: time.Now().UTC(),
		logger:    log,
		checks:    make(map[string]Pinger),
	}
}

// WithCheck registers a named dependency check used by readiness.
func (h *HealthHandler) WithCheck(name string, pinger Pinger) *HealthHandler {
	if name != "" && pinger != nil {
		h.checks[name] = pinger
	}
	return h
}

// Status reports liveness: the process is up and serving.
func (h *HealthHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		StartedAt: h.startedAt,
	})
}

// Ready reports readiness: every registered dependency answers a ping.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	results := make(map[string]string, len(h.checks))
	healthy := true

	for name, pinger := range h.checks {
		if err := pinger.Ping(ctx); err != nil {
			h.logger.Warn("readiness check failed", zap.String("check", name), zap.Error(err))
			results[name] = "down"
			healthy = false
			continue
		}
		results[name] = "ok"
	}

	status := "ok"
	code := http.StatusOK
	if !healthy {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, ReadinessResponse{
		Status: status,
		Checks: results,
	})
}
