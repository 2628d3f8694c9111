package conversation

import "errors"

var (
	// ErrEmptyPrompt is returned when a prompt is empty after trimming.
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrNoActiveConversation is returned when a widget has no conversation yet.
	ErrNoActiveConversation = errors.New("no active conversation for widget")

	// ErrNoPendingUserTurn is returned when a model turn would not answer a user turn.
	ErrNoPendingUserTurn = errors.New("conversation does not end with a user turn")
)
