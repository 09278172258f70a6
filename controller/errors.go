package controller

import "errors"

// ErrAutoLoopLimit is raised when the model keeps requesting device
// commands without ever answering and the consecutive auto-turn bound is
// exhausted. Fatal to the current turn only, not to the session.
var ErrAutoLoopLimit = errors.New("auto-loop limit reached")

// ErrDeviceRequired is returned by New when no device executor was
// supplied. The controller cannot run show or configure envelopes without
// one.
var ErrDeviceRequired = errors.New("device executor is required")

// ErrPresenterRequired is returned by New when no presenter was supplied.
var ErrPresenterRequired = errors.New("presenter is required")
