package repository

import "github.com/okian/oscrouter/internal/domain/model"

// Option applies a configuration option to the MemoryTable.
type Option func(*MemoryTable)

// WithRoutes seeds the table. Station keys are normalized.
func WithRoutes(routes map[string]model.Endpoint) Option {
	return func(t *MemoryTable) {
		for station, ep := range routes {
			if key := model.NormalizeStation(station); key != "" {
				t.routes[key] = ep
			}
		}
	}
}
