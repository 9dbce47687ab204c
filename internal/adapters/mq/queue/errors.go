package queue

import "errors"

// Sentinel kinds for enqueue failures.
var (
	ErrFull   = errors.New("inbound queue full")
	ErrClosed = errors.New("inbound queue closed")
)
