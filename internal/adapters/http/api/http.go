// Package api exposes the router's administrative operations over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/okian/oscrouter/internal/adapters/eventlog"
	"github.com/okian/oscrouter/internal/adapters/repository"
	"github.com/okian/oscrouter/internal/domain/model"
	"github.com/okian/oscrouter/internal/domain/types"
)

// Dependencies required by HTTP handlers. The router implements all of it.
type Dependencies interface {
	Start(ctx context.Context, port int) error
	Stop() error
	Restart(ctx context.Context, port int) error

	Status(ctx context.Context) types.Status
	Network(ctx context.Context) types.NetworkInfo

	RoutingTable(ctx context.Context) map[string]string
	UpdateRouting(ctx context.Context, station, address string) (model.Endpoint, error)
	TestRoute(ctx context.Context, station string) (model.Endpoint, error)

	RecentEvents(ctx context.Context, limit int) []model.Event
	ClearEvents(ctx context.Context)
	Subscribe() (<-chan eventlog.Notice, func())
}

// Server wires HTTP routes for the admin API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	statusHandler  *StatusHandler
	controlHandler *ControlHandler
	routingHandler *RoutingHandler
	logHandler     *LogHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		statusHandler:  NewStatusHandler(deps),
		controlHandler: NewControlHandler(deps),
		routingHandler: NewRoutingHandler(deps),
		logHandler:     NewLogHandler(deps),
	}
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r *mux.Router) {
	r.Use(MetricsMiddleware)

	r.HandleFunc("/healthz", s.healthHandler.HandleHealth).Methods(http.MethodGet).Name("healthz")
	r.HandleFunc("/stats", s.statsHandler.HandleStats).Methods(http.MethodGet).Name("stats")

	osc := r.PathPrefix("/api/osc").Subrouter()
	osc.HandleFunc("/status", s.statusHandler.HandleStatus).Methods(http.MethodGet).Name("status")
	osc.HandleFunc("/network", s.statusHandler.HandleNetwork).Methods(http.MethodGet).Name("network")

	osc.HandleFunc("/routing", s.routingHandler.HandleGetRouting).Methods(http.MethodGet).Name("routing")
	osc.HandleFunc("/routing/{station}", s.routingHandler.HandlePutRouting).Methods(http.MethodPut).Name("routing_update")
	osc.HandleFunc("/routing/{station}/test", s.routingHandler.HandleTestRouting).Methods(http.MethodPost).Name("routing_test")

	osc.HandleFunc("/log", s.logHandler.HandleGetLog).Methods(http.MethodGet).Name("log")
	osc.HandleFunc("/log", s.logHandler.HandleClearLog).Methods(http.MethodDelete).Name("log_clear")
	osc.HandleFunc("/log/stream", s.logHandler.HandleStream).Methods(http.MethodGet).Name("log_stream")

	osc.HandleFunc("/{action:start|stop|restart}", s.controlHandler.HandleControl).Methods(http.MethodPost).Name("control")
}

// envelope is the {"success": ...} shape the admin UI reads.
type envelope map[string]any

var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter, key string, v any) {
	body := envelope{"success": true}
	if key != "" {
		body[key] = v
	}
	writeJSON(w, http.StatusOK, body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, envelope{"success": false, "message": msg})
}

// decodeBody decodes an optional JSON body into dst and validates it.
// An empty body leaves dst untouched.
func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return validate.Struct(dst)
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Join(ErrBadRequest, err)
	}
	if err := validate.Struct(dst); err != nil {
		return errors.Join(ErrBadRequest, err)
	}
	return nil
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, model.ErrInvalidEndpoint),
		errors.Is(err, repository.ErrInvalidStation):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
