// Package handlers provides HTTP request handlers.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"jsonapiq/internal/metadata"
)

// Pinger checks database connectivity. *postgres.Pool satisfies it.
type Pinger interface {
	Ready(ctx context.Context) error
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	db       Pinger
	registry *metadata.Registry
}

// NewHealthHandler creates a new health handler. db may be nil when the
// service runs without a database.
func NewHealthHandler(db Pinger, registry *metadata.Registry) *HealthHandler {
	return &HealthHandler{db: db, registry: registry}
}

// Live handles liveness probe (is the process alive?).
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready handles readiness probe (is the service ready to accept traffic?).
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"checks": map[string]string{
				"database": "disabled",
			},
		})
		return
	}

	if err := h.db.Ready(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "error",
			"checks": map[string]string{
				"database": "unhealthy: " + err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"checks": map[string]string{
			"database": "healthy",
		},
	})
}

// Info returns application information.
// GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	resources := make([]string, 0)
	for _, def := range h.registry.List() {
		for _, b := range def.Bundles {
			resources = append(resources, def.Name+"--"+b.Name)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"app":       "jsonapiq",
		"version":   "0.1.0",
		"database":  h.db != nil,
		"resources": resources,
	})
}
