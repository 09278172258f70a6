package engine

import "errors"

// Sentinel errors for completion calls.
var (
	// ErrTransient marks network, provider, or decode failures that leave
	// the session usable; the controller surfaces them without retrying.
	ErrTransient = errors.New("completion engine failure")
	// ErrEmptyReply is returned when the provider answers with no choices.
	ErrEmptyReply = errors.New("completion engine returned no choices")
	// ErrModelUnknown is returned by the registry for unrecognized model ids.
	ErrModelUnknown = errors.New("unknown model")
)
