package events

import "errors"

var (
	ErrMalformedEvent   = errors.New("events: malformed event")
	ErrUnknownEventType = errors.New("events: unknown event type")
	ErrHookFailed       = errors.New("events: after-create hook failed")
	ErrNilDependency    = errors.New("events: nil dependency")
	ErrHandlerPanicked  = errors.New("events: handler panicked")
)
