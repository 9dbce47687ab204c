// Package repository holds the station routing table.
package repository

import (
	"context"

	"github.com/okian/oscrouter/internal/domain/model"
)

// Route is a routing table row.
type Route struct {
	Station  string
	Endpoint model.Endpoint
}

// RoutingTable maps station identifiers to destination endpoints.
// Keys are case-insensitive.
type RoutingTable interface {
	// Lookup returns the endpoint for station.
	// Returns ErrNotFound if the station has no entry.
	Lookup(ctx context.Context, station string) (model.Endpoint, error)

	// Upsert inserts or overwrites the entry for station.
	Upsert(ctx context.Context, station string, ep model.Endpoint) error

	// Snapshot returns a copy of all entries ordered by station.
	Snapshot(ctx context.Context) []Route

	// Len returns the number of entries.
	Len(ctx context.Context) int
}
