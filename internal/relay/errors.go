package relay

import (
	"errors"
	"fmt"
)

// TransportError covers everything that kept a usable answer from arriving:
// network failures, timeouts, non-success HTTP status without an envelope,
// and bodies that are not JSON.
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("relay transport error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("relay transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ApplicationError is an explicit failure answered by the relay.
type ApplicationError struct {
	Message string
}

func (e *ApplicationError) Error() string {
	return "relay error: " + e.Message
}

// UnexpectedShapeError is a success envelope without the generated text.
type UnexpectedShapeError struct {
	Body []byte
}

func (e *UnexpectedShapeError) Error() string {
	return "relay answered success without a message"
}

const (
	TransportMessage = "Request failed. Please check your connection and try again."
	ShapeMessage     = "Error: Received an unexpected response from the server."
	CriticalMessage  = "A critical error occurred. Check the browser console for details."

	transportStatusFormat = "Failed to communicate with the server. Status: %d"
)

// DisplayMessage converts a relay error into the text shown in the widget.
func DisplayMessage(err error) string {
	var appErr *ApplicationError
	var shapeErr *UnexpectedShapeError
	var transportErr *TransportError
	switch {
	case errors.As(err, &appErr):
		if appErr.Message == "" {
			return ShapeMessage
		}
		return appErr.Message
	case errors.As(err, &shapeErr):
		return ShapeMessage
	case errors.As(err, &transportErr):
		if transportErr.StatusCode != 0 {
			return fmt.Sprintf(transportStatusFormat, transportErr.StatusCode)
		}
		return TransportMessage
	default:
		return CriticalMessage
	}
}
