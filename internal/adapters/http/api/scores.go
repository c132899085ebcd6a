// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pitchside/tally/internal/adapters/snapshot"
	"github.com/pitchside/tally/internal/domain/model"
)

// ScoresDependencies defines the interface for scores snapshot reads.
type ScoresDependencies interface {
	Scores(ctx context.Context, date string) (ScoresDoc, error)
}

// ScoresHandler handles per-date scores requests.
type ScoresHandler struct {
	deps ScoresDependencies
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(deps ScoresDependencies) *ScoresHandler {
	return &ScoresHandler{deps: deps}
}

// HandleGetScores handles GET /scores/{date} requests.
func (h *ScoresHandler) HandleGetScores(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Extract path parameter after /scores/
	date := strings.TrimPrefix(r.URL.Path, "/scores/")
	if date == "" || strings.Contains(date, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	if _, err := time.Parse(model.DateFormat, date); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request",
			fmt.Errorf("%w: date must be YYYY-MM-DD", ErrBadRequest))
		return
	}

	doc, err := h.deps.Scores(r.Context(), date)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}
