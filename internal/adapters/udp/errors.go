package udp

import "errors"

// Sentinel kinds for transport errors.
var (
	ErrBind   = errors.New("bind failed")
	ErrDial   = errors.New("dial failed")
	ErrSend   = errors.New("send failed")
	ErrClosed = errors.New("client pool closed")
)
