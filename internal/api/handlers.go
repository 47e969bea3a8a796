package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// handleHealth returns server health status
func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resp := gin.H{
		"status":   "healthy",
		"database": "healthy",
		"uptime":   time.Since(s.startedAt).String(),
	}

	if err := s.repo.HealthCheck(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": "unhealthy",
		})
		return
	}

	if s.vaultClient != nil && s.vaultClient.IsEnabled() {
		if err := s.vaultClient.Health(ctx); err != nil {
			resp["vault"] = "unhealthy"
		} else {
			resp["vault"] = "healthy"
		}
	}

	c.JSON(http.StatusOK, resp)
}

// handleStats returns dashboard statistics for the admin console
func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.repo.GetLicenseStats(c.Request.Context())
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load statistics")
		return
	}

	if wsHub != nil {
		stats["connected_consoles"] = wsHub.GetClientCount()
	}
	if s.scheduler != nil {
		stats["renewal_scheduler"] = s.scheduler.Status()
	}

	successResponse(c, stats)
}
