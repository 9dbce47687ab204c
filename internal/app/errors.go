package service

import "errors"

// Sentinel kinds for router errors. Per-datagram errors end up in the event
// log; only the lifecycle and admin calls return them.
var (
	ErrWrongFormat = errors.New("wrong format, expected /<station>/score")
	ErrNoArguments = errors.New("no score arguments")
	ErrRateLimited = errors.New("rate limited")
	ErrStart       = errors.New("router start failed")
	ErrUnknownKind = errors.New("unsupported argument kind")
)
