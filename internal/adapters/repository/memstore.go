package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/okian/oscrouter/internal/domain/model"
	"github.com/okian/oscrouter/pkg/metrics"
)

// MemoryTable is a RoutingTable held in process memory. It is safe for
// concurrent use; readers never observe a partially applied upsert.
type MemoryTable struct {
	mu     sync.RWMutex
	routes map[string]model.Endpoint
}

var _ RoutingTable = (*MemoryTable)(nil)

// NewMemoryTable creates an empty table, optionally seeded via WithRoutes.
func NewMemoryTable(opts ...Option) *MemoryTable {
	t := &MemoryTable{routes: make(map[string]model.Endpoint)}
	for _, opt := range opts {
		opt(t)
	}
	metrics.UpdateRoutingEntries(len(t.routes))
	return t
}

// Lookup returns the endpoint for station.
func (t *MemoryTable) Lookup(_ context.Context, station string) (model.Endpoint, error) {
	key := model.NormalizeStation(station)

	t.mu.RLock()
	ep, ok := t.routes[key]
	t.mu.RUnlock()

	if !ok {
		return model.Endpoint{}, fmt.Errorf("%w %s", ErrNotFound, key)
	}
	return ep, nil
}

// Upsert inserts or overwrites the entry for station. Reachability of the
// endpoint is not checked here.
func (t *MemoryTable) Upsert(_ context.Context, station string, ep model.Endpoint) error {
	key := model.NormalizeStation(station)
	if key == "" || strings.Contains(key, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidStation, station)
	}

	t.mu.Lock()
	t.routes[key] = ep
	n := len(t.routes)
	t.mu.Unlock()

	metrics.UpdateRoutingEntries(n)
	return nil
}

// Snapshot returns a copy of all entries ordered by station.
func (t *MemoryTable) Snapshot(_ context.Context) []Route {
	t.mu.RLock()
	out := make([]Route, 0, len(t.routes))
	for station, ep := range t.routes {
		out = append(out, Route{Station: station, Endpoint: ep})
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Station < out[j].Station })
	return out
}

// Len returns the number of entries.
func (t *MemoryTable) Len(_ context.Context) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.routes)
}
