package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/tokenforge/internal/domain/repository"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	store     repository.RecordStore
	startedAt time.Time
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(store repository.RecordStore) *HealthHandler {
	return &HealthHandler{
		store:     store,
		startedAt: time.Now(),
	}
}

// Liveness reports that the process is up.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
		"uptime": time.Since(h.startedAt).String(),
	})
}

// Readiness round-trips a probe through the record store.
func (h *HealthHandler) Readiness(c *gin.Context) {
	status := h.store.Health(c.Request.Context())
	if !status.Healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "not_ready",
			"message": status.Message,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
