package editor

import (
	"github.com/gin-gonic/gin"

	"github.com/Conversly/design-assistant/internal/config"
	"github.com/Conversly/design-assistant/internal/session"
)

func RegisterRoutes(router *gin.Engine, sessions *session.Manager, cfg *config.Config) {
	svc := NewService(sessions, cfg)
	ctrl := NewController(svc)

	g := router.Group("/editor/sessions")
	g.POST("", ctrl.CreateSession)
	g.DELETE("/:id", ctrl.EndSession)
	g.POST("/:id/generate", ctrl.Generate)
	g.POST("/:id/signals/structural-change", ctrl.StructuralChange)
	g.GET("/:id/conversations/:widgetId", ctrl.GetConversation)
	g.GET("/:id/preview", ctrl.Preview)
}
