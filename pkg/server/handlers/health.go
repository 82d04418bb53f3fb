// Package handlers implements the HTTP API endpoints.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/docgraph-io/docgraph"
)

// HealthHandler handles health and readiness probes.
type HealthHandler struct {
	engine docgraph.Service
	start  time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(engine docgraph.Service) *HealthHandler {
	return &HealthHandler{engine: engine, start: time.Now()}
}

// HealthCheck handles GET /health.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(h.start).Round(time.Second).String(),
	})
}

// ReadinessCheck handles GET /ready. The store must be reachable before the
// server accepts traffic.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	if _, err := h.engine.Documents(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
