package chat

import "errors"

// RequestState is the request lifecycle of one widget.
type RequestState string

const (
	StateIdle     RequestState = "idle"
	StateAwaiting RequestState = "awaiting-response"
	StateError    RequestState = "error-shown"
)

// ErrRequestInFlight is returned when a widget already has an outstanding
// relay call.
var ErrRequestInFlight = errors.New("a request for this widget is already in flight")

type requestKind int

const (
	kindInitial requestKind = iota
	kindFollowUp
)

type widgetState struct {
	state RequestState
	kind  requestKind
	// message is the error shown while state is StateError.
	message string
}
