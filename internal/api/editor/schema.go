package editor

import "github.com/Conversly/design-assistant/internal/conversation"

type CreateSessionResponse struct {
	SessionID string `json:"sessionId"`
	Security  string `json:"security"`
}

type GenerateRequest struct {
	WidgetID string `json:"widgetId" binding:"required"`
	Prompt   string `json:"prompt"`
}

type GenerateResponse struct {
	RequestID string `json:"request_id,omitempty"`
	Accepted  bool   `json:"accepted"`
}

type ConversationResponse struct {
	WidgetID     string                    `json:"widgetId"`
	State        string                    `json:"state"`
	Conversation conversation.Conversation `json:"conversation"`
}
