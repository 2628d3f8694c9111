package relay

import (
	"github.com/gin-gonic/gin"

	"github.com/Conversly/design-assistant/internal/core"
	"github.com/Conversly/design-assistant/internal/utils"
)

func RegisterRoutes(router *gin.Engine, gen Generator, tokens *utils.TokenRegistry, usage *core.UsageSaver) {
	svc := NewService(gen, tokens, usage)
	ctrl := NewController(svc)
	router.POST("/relay/generate", ctrl.Generate)
}
