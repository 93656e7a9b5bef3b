package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-portal-api/internal/service"
	"github.com/noah-isme/school-portal-api/pkg/response"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a plain function to Pinger.
type PingFunc func(ctx context.Context) error

// PingContext calls f.
func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// HealthHandler exposes liveness, readiness and metrics endpoints.
type HealthHandler struct {
	metrics *service.MetricsService
	deps    map[string]Pinger
}

// NewHealthHandler constructs the handler. deps are checked by Ready.
func NewHealthHandler(metrics *service.MetricsService, deps map[string]Pinger) *HealthHandler {
	return &HealthHandler{metrics: metrics, deps: deps}
}

// Prometheus serves the Prometheus scrape endpoint.
func (h *HealthHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Live always answers ok.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready pings every dependency with a short timeout.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.deps))
	healthy := true
	for name, dep := range h.deps {
		if err := dep.PingContext(ctx); err != nil {
			checks[name] = "down"
			healthy = false
			continue
		}
		checks[name] = "up"
	}
	if !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "checks": checks})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "checks": checks})
}

// Snapshot returns the in-process cache counters.
func (h *HealthHandler) Snapshot(c *gin.Context) {
	response.OK(c, h.metrics.Snapshot())
}
