package relay

import "github.com/Conversly/design-assistant/internal/relay"

// Request and Response are shared with the relay client.
type (
	Request  = relay.Request
	Response = relay.Response
)

const (
	MsgSecurityFailed = "Error: Security check failed."
	MsgEmptyPrompt    = "Error: Prompt is empty."
	MsgNoAPIKey       = "Error: Google AI API Key is not set."
	MsgBadFormat      = "Error: Received an unexpected format from the API."

	apiErrorPrefix      = "API Error: "
	requestFailedPrefix = "API Request Failed: "
)

func success(text string) Response {
	return Response{Success: true, Message: &text}
}

func failure(message string) Response {
	return Response{Success: false, Message: &message}
}
