// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/oscrouter/internal/adapters/osc"
)

// Outcome is the result of handling one inbound datagram.
type Outcome string

const (
	OutcomeForwarded Outcome = "forwarded"
	OutcomeWaiting   Outcome = "waiting-for-more-parts"
	OutcomeError     Outcome = "error"
)

// Outbound is the message actually sent to a station.
type Outbound struct {
	Address string         `json:"address"`
	Args    []osc.Argument `json:"args"`
}

// Event records what the router did with a single inbound datagram.
// Events are never mutated after they are appended to the log.
type Event struct {
	ID          string         `json:"id"`
	Timestamp   time.Time      `json:"timestamp"`
	Address     string         `json:"address,omitempty"`
	Args        []osc.Argument `json:"args,omitempty"`
	Source      string         `json:"source"`
	Station     string         `json:"station,omitempty"`
	Destination string         `json:"destination,omitempty"`
	Outcome     Outcome        `json:"outcome"`
	Error       string         `json:"error,omitempty"`
	Sent        *Outbound      `json:"sent,omitempty"`
}

// Failed reports whether the event has the error outcome.
func (e *Event) Failed() bool { return e.Outcome == OutcomeError }
