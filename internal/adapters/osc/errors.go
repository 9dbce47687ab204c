package osc

import (
	"errors"
	"fmt"
)

// Sentinel kinds for codec errors.
var (
	ErrDecode = errors.New("osc decode failed")
	ErrEncode = errors.New("osc encode failed")
)

// DecodeError reports why a datagram could not be parsed and where.
type DecodeError struct {
	Offset int
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("osc: decode at byte %d: %s", e.Offset, e.Reason)
}

// Unwrap lets callers match with errors.Is(err, ErrDecode).
func (e *DecodeError) Unwrap() error { return ErrDecode }

func decodeErr(offset int, format string, args ...any) error {
	return &DecodeError{Offset: offset, Reason: fmt.Sprintf(format, args...)}
}
