package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/okian/oscrouter/internal/domain/model"
)

// RoutingDependencies reads and edits the routing table.
type RoutingDependencies interface {
	RoutingTable(ctx context.Context) map[string]string
	UpdateRouting(ctx context.Context, station, address string) (model.Endpoint, error)
	TestRoute(ctx context.Context, station string) (model.Endpoint, error)
}

// routingRequest is the body of PUT /api/osc/routing/{station}.
type routingRequest struct {
	Address string `json:"address" validate:"required"`
}

// RoutingHandler handles routing table requests.
type RoutingHandler struct {
	deps RoutingDependencies
}

// NewRoutingHandler creates a new routing handler.
func NewRoutingHandler(deps RoutingDependencies) *RoutingHandler {
	return &RoutingHandler{deps: deps}
}

// HandleGetRouting handles GET /api/osc/routing.
func (h *RoutingHandler) HandleGetRouting(w http.ResponseWriter, r *http.Request) {
	writeOK(w, "routing", h.deps.RoutingTable(r.Context()))
}

// HandlePutRouting handles PUT /api/osc/routing/{station}.
func (h *RoutingHandler) HandlePutRouting(w http.ResponseWriter, r *http.Request) {
	station := mux.Vars(r)["station"]

	var req routingRequest
	if r.ContentLength == 0 {
		writeError(w, http.StatusBadRequest, ErrBadRequest)
		return
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ep, err := h.deps.UpdateRouting(r.Context(), station, req.Address)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"success": true,
		"station": model.NormalizeStation(station),
		"address": ep.String(),
	})
}

// HandleTestRouting handles POST /api/osc/routing/{station}/test.
func (h *RoutingHandler) HandleTestRouting(w http.ResponseWriter, r *http.Request) {
	station := mux.Vars(r)["station"]

	ep, err := h.deps.TestRoute(r.Context(), station)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"success": true,
		"message": "test score sent to " + ep.String(),
	})
}
