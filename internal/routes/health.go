package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Conversly/design-assistant/internal/config"
	"github.com/Conversly/design-assistant/internal/controllers"
)

// SetupHealthRoutes configures health check and status endpoints
func SetupHealthRoutes(router *gin.Engine, deps Dependencies, cfg *config.Config) {
	healthController := controllers.NewHealthController(deps.DB, deps.Sessions)
	systemController := controllers.NewSystemController(cfg, deps.Sessions)

	// Root endpoint
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	router.GET("/health", healthController.HealthCheck)
	router.GET("/health/live", healthController.Liveness)
	router.GET("/health/ready", healthController.Readiness)

	v1 := router.Group("/api/v1")
	v1.GET("/status", systemController.Status)
	v1.GET("/info", systemController.Info)
}
