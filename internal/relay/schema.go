package relay

import "github.com/Conversly/design-assistant/internal/conversation"

// Request is the payload posted to the relay. The relay is stateless, so
// every call carries the whole conversation.
type Request struct {
	Conversation conversation.Conversation `json:"conversation" binding:"required"`
	Security     string                    `json:"security"`
}

// Response is the relay's answer envelope.
//
//	{ "success": true,  "message": "generated text" }
//	{ "success": false, "message": "API Error: quota exceeded" }
type Response struct {
	Success bool    `json:"success"`
	Message *string `json:"message"`
}
