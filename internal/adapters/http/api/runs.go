// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pitchside/tally/internal/domain/model"
	"github.com/pitchside/tally/internal/domain/runguard"
)

// RunDependencies defines the interface for pipeline run triggers.
type RunDependencies interface {
	RunMorning(ctx context.Context, date string) (RunReport, error)
	RunEvening(ctx context.Context, date string) (RunReport, error)
}

// RunsHandler handles run trigger requests.
type RunsHandler struct {
	deps  RunDependencies
	token string
	now   func() time.Time
}

// NewRunsHandler creates a new runs handler. An empty token disables auth.
func NewRunsHandler(deps RunDependencies, token string) *RunsHandler {
	return &RunsHandler{
		deps:  deps,
		token: token,
		now:   time.Now,
	}
}

// HandleMorningRun handles POST /run/morning requests.
func (h *RunsHandler) HandleMorningRun(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, h.deps.RunMorning)
}

// HandleEveningRun handles POST /run/evening requests.
func (h *RunsHandler) HandleEveningRun(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, h.deps.RunEvening)
}

// trigger runs the shared request flow: auth, date resolution, admission.
// Step failures inside a run come back as part of the report with HTTP 200;
// only rejected triggers map to error statuses.
func (h *RunsHandler) trigger(w http.ResponseWriter, r *http.Request, run func(context.Context, string) (RunReport, error)) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if h.token != "" && r.Header.Get("Authorization") != "Bearer "+h.token {
		writeError(w, http.StatusUnauthorized, "unauthorized", ErrUnauthorized)
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		date = h.now().Format(model.DateFormat)
	} else if _, err := time.Parse(model.DateFormat, date); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request",
			fmt.Errorf("%w: date must be YYYY-MM-DD", ErrBadRequest))
		return
	}

	report, err := run(r.Context(), date)
	if err != nil {
		if errors.Is(err, runguard.ErrInFlight) {
			writeError(w, http.StatusConflict, "run_in_flight", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
