package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/Conversly/design-assistant/internal/api/editor"
	"github.com/Conversly/design-assistant/internal/api/relay"
	"github.com/Conversly/design-assistant/internal/config"
	"github.com/Conversly/design-assistant/internal/controllers"
	"github.com/Conversly/design-assistant/internal/core"
	"github.com/Conversly/design-assistant/internal/middleware"
	"github.com/Conversly/design-assistant/internal/session"
	"github.com/Conversly/design-assistant/internal/utils"
)

// Dependencies are the long-lived components shared by the handlers. DB,
// Generator and Usage are nil when not configured.
type Dependencies struct {
	DB        controllers.Pinger
	Sessions  *session.Manager
	Tokens    *utils.TokenRegistry
	Generator relay.Generator
	Usage     *core.UsageSaver
}

// SetupRoutes configures all application routes
func SetupRoutes(router *gin.Engine, deps Dependencies, cfg *config.Config) {
	// Apply global middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(middleware.RequestID())

	// Setup route groups
	SetupHealthRoutes(router, deps, cfg)
	editor.RegisterRoutes(router, deps.Sessions, cfg)
	relay.RegisterRoutes(router, deps.Generator, deps.Tokens, deps.Usage)
	Setup404Handler(router)
}
