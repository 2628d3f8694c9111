package editor

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Conversly/design-assistant/internal/chat"
	"github.com/Conversly/design-assistant/internal/conversation"
	"github.com/Conversly/design-assistant/internal/preview"
	"github.com/Conversly/design-assistant/internal/session"
	"github.com/Conversly/design-assistant/internal/utils"
)

type Controller struct {
	svc *Service
}

func NewController(svc *Service) *Controller {
	return &Controller{svc: svc}
}

func abort(ctx *gin.Context, status int, code, message string) {
	ctx.JSON(status, gin.H{
		"error":     code,
		"message":   message,
		"timestamp": time.Now().UTC(),
	})
}

// session resolves the :id path parameter or answers 404.
func (c *Controller) session(ctx *gin.Context) (*session.Session, bool) {
	sess, err := c.svc.sessions.Get(ctx.Param("id"))
	if err != nil {
		abort(ctx, http.StatusNotFound, "session_not_found", err.Error())
		return nil, false
	}
	return sess, true
}

func (c *Controller) CreateSession(ctx *gin.Context) {
	sess := c.svc.sessions.Create()
	ctx.JSON(http.StatusCreated, CreateSessionResponse{
		SessionID: sess.ID,
		Security:  sess.Token,
	})
}

func (c *Controller) EndSession(ctx *gin.Context) {
	if err := c.svc.sessions.End(ctx.Param("id")); err != nil {
		abort(ctx, http.StatusNotFound, "session_not_found", err.Error())
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (c *Controller) Generate(ctx *gin.Context) {
	sess, ok := c.session(ctx)
	if !ok {
		return
	}

	var req GenerateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Zlog.Warn("invalid generate payload", zap.Error(err))
		abort(ctx, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if !preview.ValidWidgetID(req.WidgetID) {
		abort(ctx, http.StatusBadRequest, "bad_request", "invalid widgetId")
		return
	}

	err := sess.Generate(req.WidgetID, req.Prompt)
	switch {
	case errors.Is(err, conversation.ErrEmptyPrompt):
		abort(ctx, http.StatusUnprocessableEntity, "empty_prompt", "Please enter a prompt first.")
		return
	case errors.Is(err, chat.ErrRequestInFlight):
		abort(ctx, http.StatusConflict, "request_in_flight", err.Error())
		return
	case err != nil:
		utils.Zlog.Error("generate failed",
			zap.String("session_id", sess.ID),
			zap.String("widget_id", req.WidgetID),
			zap.Error(err))
		abort(ctx, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	ctx.JSON(http.StatusAccepted, GenerateResponse{
		RequestID: ctx.GetString("request_id"),
		Accepted:  true,
	})
}

func (c *Controller) StructuralChange(ctx *gin.Context) {
	sess, ok := c.session(ctx)
	if !ok {
		return
	}
	sess.SignalStructuralChange()
	ctx.Status(http.StatusNoContent)
}

func (c *Controller) GetConversation(ctx *gin.Context) {
	sess, ok := c.session(ctx)
	if !ok {
		return
	}
	widgetID := ctx.Param("widgetId")
	conv, found := sess.Store.Get(widgetID)
	if !found {
		abort(ctx, http.StatusNotFound, "conversation_not_found", conversation.ErrNoActiveConversation.Error())
		return
	}
	ctx.JSON(http.StatusOK, ConversationResponse{
		WidgetID:     widgetID,
		State:        string(sess.Controller.State(widgetID)),
		Conversation: conv,
	})
}

func (c *Controller) Preview(ctx *gin.Context) {
	sess, ok := c.session(ctx)
	if !ok {
		return
	}
	if err := c.svc.ServePreview(ctx.Writer, ctx.Request, sess); err != nil {
		// the upgrader has already answered the client
		utils.Zlog.Warn("preview upgrade failed",
			zap.String("session_id", sess.ID),
			zap.Error(err))
	}
}
