package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

// ControlDependencies drives the router lifecycle.
type ControlDependencies interface {
	Start(ctx context.Context, port int) error
	Stop() error
	Restart(ctx context.Context, port int) error
}

// controlRequest is the optional body of start and restart.
type controlRequest struct {
	Port int `json:"port" validate:"omitempty,min=1,max=65535"`
}

// ControlHandler handles start, stop and restart.
type ControlHandler struct {
	deps ControlDependencies
}

// NewControlHandler creates a new control handler.
func NewControlHandler(deps ControlDependencies) *ControlHandler {
	return &ControlHandler{deps: deps}
}

// HandleControl handles POST /api/osc/{start|stop|restart}.
func (h *ControlHandler) HandleControl(w http.ResponseWriter, r *http.Request) {
	action := mux.Vars(r)["action"]

	var req controlRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var err error
	switch action {
	case "start":
		err = h.deps.Start(r.Context(), req.Port)
	case "stop":
		err = h.deps.Stop()
	case "restart":
		err = h.deps.Restart(r.Context(), req.Port)
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeOK(w, "message", fmt.Sprintf("OSC router %s completed", action))
}
