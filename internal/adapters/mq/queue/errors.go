package queue

import "errors"

// Sentinel kinds for enqueue failures.
var (
	ErrQueueFull   = errors.New("training queue full")
	ErrQueueClosed = errors.New("training queue closed")
)
