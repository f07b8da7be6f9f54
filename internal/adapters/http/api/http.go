// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/goccy/go-json"

	service "github.com/okian/gigradar/internal/app"
	"github.com/okian/gigradar/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the run service.
type Dependencies interface {
	// Trigger queues a run, or returns service.ErrRunInProgress.
	Trigger(ctx context.Context, kind model.RunKind) (model.RunRequest, error)
	// Status reports the active and last runs.
	Status() service.Status
}

// Server wires HTTP routes for the run API.
type Server struct {
	healthHandler *HealthHandler
	runsHandler   *RunsHandler
	statusHandler *StatusHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		runsHandler:   NewRunsHandler(deps),
		statusHandler: NewStatusHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/status", MetricsMiddleware(s.statusHandler.HandleStatus, "status"))
	mux.HandleFunc("/runs", MetricsMiddleware(s.runsHandler.HandleRuns, "runs"))
	mux.HandleFunc("/cleanup", MetricsMiddleware(s.runsHandler.HandleCleanup, "cleanup"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
