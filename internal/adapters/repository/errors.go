package repository

import "errors"

// Sentinel kinds for routing table errors.
var (
	ErrNotFound       = errors.New("no mapping for station")
	ErrInvalidStation = errors.New("invalid station id")
)
