package livesync

import "errors"

var (
	// ErrNotReady is returned for operations that need a hydrated controller.
	ErrNotReady = errors.New("livesync: controller is not ready")
	// ErrUnknownSlot is returned when a key is not in the registry.
	ErrUnknownSlot = errors.New("livesync: unknown slot")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("livesync: controller closed")

	errStaleRun   = errors.New("hydration run superseded")
	errTargetLost = errors.New("target unavailable")
)
