package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Conversly/design-assistant/internal/config"
)

type SystemController struct {
	cfg      *config.Config
	sessions SessionCounter
}

func NewSystemController(cfg *config.Config, sessions SessionCounter) *SystemController {
	return &SystemController{cfg: cfg, sessions: sessions}
}

// Status godoc
// @Summary Get system status
// @Tags system
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/status [get]
func (s *SystemController) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":     s.cfg.ServiceName,
		"version":     "1.0.0",
		"environment": s.cfg.Environment,
		"hostname":    s.cfg.Hostname,
		"sessions":    s.sessions.Count(),
		"timestamp":   time.Now().UTC(),
	})
}

// Info godoc
// @Summary Get system information
// @Tags system
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/info [get]
func (s *SystemController) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":         s.cfg.ServiceName,
		"version":         "1.0.0",
		"environment":     s.cfg.Environment,
		"hostname":        s.cfg.Hostname,
		"debug":           s.cfg.Debug,
		"log_level":       s.cfg.LogLevel,
		"model":           s.cfg.GeminiModel,
		"api_keys":        len(s.cfg.GeminiAPIKeys),
		"relay_timeout":   s.cfg.RelayTimeout.String(),
		"clipboard_mode":  s.cfg.ClipboardMode,
		"usage_recording": s.cfg.DatabaseURL != "",
		"timestamp":       time.Now().UTC(),
	})
}
