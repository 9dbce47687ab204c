package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest     = errors.New("bad request")
	ErrStreamingUnsup = errors.New("streaming unsupported")
)
