package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	service "github.com/okian/gigradar/internal/app"
	"github.com/okian/gigradar/internal/domain/model"
)

// RunsHandler accepts run triggers.
type RunsHandler struct {
	deps Dependencies
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(deps Dependencies) *RunsHandler {
	return &RunsHandler{deps: deps}
}

// runRequest is the optional body of POST /runs.
type runRequest struct {
	Kind string `json:"kind"`
}

type acceptedResponse struct {
	Status      string        `json:"status"`
	ID          string        `json:"id"`
	Kind        model.RunKind `json:"kind"`
	RequestedAt time.Time     `json:"requested_at"`
}

// HandleRuns handles POST /runs. The body may name a kind; it defaults to
// a recommend run.
func (h *RunsHandler) HandleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	kind := model.RunRecommend
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	if req.Kind != "" {
		kind = model.RunKind(req.Kind)
	}
	h.trigger(w, r, kind)
}

// HandleCleanup handles POST /cleanup.
func (h *RunsHandler) HandleCleanup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	h.trigger(w, r, model.RunCleanup)
}

func (h *RunsHandler) trigger(w http.ResponseWriter, r *http.Request, kind model.RunKind) {
	req, err := h.deps.Trigger(r.Context(), kind)
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, acceptedResponse{
			Status:      "accepted",
			ID:          req.ID,
			Kind:        req.Kind,
			RequestedAt: req.RequestedAt,
		})
	case errors.Is(err, service.ErrRunInProgress):
		writeError(w, http.StatusConflict, "run_in_progress", fmt.Errorf("%w: %w", ErrConflict, err))
	case errors.Is(err, service.ErrUnknownRunKind):
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", fmt.Errorf("%w: %w", ErrUnavailable, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}
