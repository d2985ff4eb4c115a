package webhook

import "errors"

// Sentinel errors for webhook operations.
var (
	// ErrQueueFull is returned by Enqueue when the delivery queue has no room.
	ErrQueueFull = errors.New("webhook delivery queue is full")
	// ErrDispatcherClosed is returned by Enqueue after Shutdown.
	ErrDispatcherClosed = errors.New("webhook dispatcher is closed")
)
