package api

import (
	"context"
	"net/http"

	"github.com/okian/oscrouter/internal/domain/types"
)

// StatusDependencies defines what the status handlers read.
type StatusDependencies interface {
	Status(ctx context.Context) types.Status
	Network(ctx context.Context) types.NetworkInfo
}

// StatusHandler serves router status and network info.
type StatusHandler struct {
	deps StatusDependencies
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(deps StatusDependencies) *StatusHandler {
	return &StatusHandler{deps: deps}
}

// HandleStatus handles GET /api/osc/status.
func (h *StatusHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeOK(w, "status", h.deps.Status(r.Context()))
}

// HandleNetwork handles GET /api/osc/network.
func (h *StatusHandler) HandleNetwork(w http.ResponseWriter, r *http.Request) {
	writeOK(w, "network", h.deps.Network(r.Context()))
}
