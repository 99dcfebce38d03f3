package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// HealthCheck handles the health check endpoint
func (h *Handler) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status: "ok",
	}

	if h.cfg.Ping == nil {
		response.Database = "not configured"
		c.JSON(http.StatusOK, response)
		return
	}
	if err := h.cfg.Ping(c.Request.Context()); err != nil {
		response.Status = "degraded"
		response.Database = "disconnected"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}
	response.Database = "connected"
	c.JSON(http.StatusOK, response)
}
