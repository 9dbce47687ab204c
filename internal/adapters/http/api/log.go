package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/oscrouter/internal/adapters/eventlog"
	"github.com/okian/oscrouter/internal/domain/model"
)

const streamHeartbeat = 15 * time.Second

// LogDependencies reads, clears and follows the event log.
type LogDependencies interface {
	RecentEvents(ctx context.Context, limit int) []model.Event
	ClearEvents(ctx context.Context)
	Subscribe() (<-chan eventlog.Notice, func())
}

// LogHandler handles event log requests.
type LogHandler struct {
	deps      LogDependencies
	heartbeat time.Duration
}

// NewLogHandler creates a new log handler.
func NewLogHandler(deps LogDependencies) *LogHandler {
	return &LogHandler{deps: deps, heartbeat: streamHeartbeat}
}

// HandleGetLog handles GET /api/osc/log?limit=n, newest first.
func (h *LogHandler) HandleGetLog(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("%w: invalid limit", ErrBadRequest))
			return
		}
		limit = n
	}
	writeOK(w, "log", h.deps.RecentEvents(r.Context(), limit))
}

// HandleClearLog handles DELETE /api/osc/log.
func (h *LogHandler) HandleClearLog(w http.ResponseWriter, r *http.Request) {
	h.deps.ClearEvents(r.Context())
	writeOK(w, "message", "log cleared")
}

// HandleStream handles GET /api/osc/log/stream as server-sent events. Each
// new router event is sent as "message" and a log clear as "logCleared".
func (h *LogHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, ErrStreamingUnsup)
		return
	}

	feed, cancel := h.deps.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case n, ok := <-feed:
			if !ok {
				return
			}
			var data []byte
			if n.Event != nil {
				data, _ = json.Marshal(n.Event)
			} else {
				data = []byte("{}")
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", n.Kind, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
