package relay

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Conversly/design-assistant/internal/conversation"
	"github.com/Conversly/design-assistant/internal/utils"
)

// maxBodyBytes bounds a relay request: the whole conversation travels in it.
const maxBodyBytes = 1 << 20

type Controller struct {
	svc *Service
}

func NewController(svc *Service) *Controller {
	return &Controller{svc: svc}
}

func (c *Controller) Generate(ctx *gin.Context) {
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxBodyBytes)

	var req Request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Zlog.Warn("invalid /relay/generate payload", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":     "bad_request",
			"message":   err.Error(),
			"timestamp": time.Now().UTC(),
		})
		return
	}

	if !c.svc.Authorize(req.Security) {
		utils.Zlog.Warn("relay token rejected", zap.String("token", utils.MaskToken(req.Security)))
		ctx.JSON(http.StatusForbidden, failure(MsgSecurityFailed))
		return
	}

	if len(req.Conversation) > 0 {
		if err := conversation.Validate(req.Conversation); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{
				"error":     "bad_request",
				"message":   err.Error(),
				"timestamp": time.Now().UTC(),
			})
			return
		}
	}

	ctx.JSON(http.StatusOK, c.svc.Generate(ctx.Request.Context(), ctx.GetString("request_id"), req.Conversation))
}
