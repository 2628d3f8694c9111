package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Conversly/design-assistant/internal/utils"
)

// Pinger is the usage database. It is optional.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SessionCounter reports the number of live editing sessions.
type SessionCounter interface {
	Count() int
}

type HealthController struct {
	db       Pinger
	sessions SessionCounter
}

// NewHealthController builds the health endpoints. db may be nil when the
// service runs without a usage database.
func NewHealthController(db Pinger, sessions SessionCounter) *HealthController {
	return &HealthController{db: db, sessions: sessions}
}

// databaseStatus returns "disabled", "up" or "down".
func (h *HealthController) databaseStatus() (string, error) {
	if h.db == nil {
		return "disabled", nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		return "down", err
	}
	return "up", nil
}

// HealthCheck godoc
// @Summary Check application health
// @Description Check if the application and its usage database are healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthController) HealthCheck(c *gin.Context) {
	status, err := h.databaseStatus()
	if err != nil {
		utils.Zlog.Error("Database health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "unhealthy",
			"database":  status,
			"timestamp": time.Now().UTC(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"database":  status,
		"sessions":  h.sessions.Count(),
		"timestamp": time.Now().UTC(),
	})
}

// Liveness godoc
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/live [get]
func (h *HealthController) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now().UTC(),
	})
}

// Readiness godoc
// @Summary Readiness probe
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/ready [get]
func (h *HealthController) Readiness(c *gin.Context) {
	status, err := h.databaseStatus()
	if err != nil {
		utils.Zlog.Error("Readiness check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "not ready",
			"database":  status,
			"timestamp": time.Now().UTC(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"database":  status,
		"timestamp": time.Now().UTC(),
	})
}
