package monitor

import "errors"

var (
	// ErrAlertNotFound is returned when no alert with the given ID is in the store
	ErrAlertNotFound = errors.New("alert not found")

	// ErrUnknownCategory is returned when a category is not one of mesa, tiempo or balance
	ErrUnknownCategory = errors.New("unknown alert category")

	// ErrEngineRunning is returned when Start is called on a running engine
	ErrEngineRunning = errors.New("alert engine already running")

	// ErrEngineStopped is returned when Start is called after Stop
	ErrEngineStopped = errors.New("alert engine stopped")
)
