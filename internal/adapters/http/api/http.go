// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pitchside/tally/internal/adapters/snapshot"
	"github.com/pitchside/tally/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// RunMorning collects predictions from every source for date. The
	// returned error covers admission only; step failures live in the report.
	RunMorning(ctx context.Context, date string) (RunReport, error)

	// RunEvening reconciles date's predictions against official results and
	// rebuilds the leaderboard.
	RunEvening(ctx context.Context, date string) (RunReport, error)

	// Leaderboard returns the current rendered leaderboard.
	Leaderboard(ctx context.Context) (LeaderboardView, error)

	// Scores returns the scores snapshot for date.
	Scores(ctx context.Context, date string) (ScoresDoc, error)
}

// Wire shapes shared with the rest of the application.
type (
	RunReport       = types.RunReport
	StepReport      = types.StepReport
	LeaderboardView = types.LeaderboardView
	ScoresDoc       = snapshot.ScoresDoc
)

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	metricsHandler     *MetricsHandler
	statsHandler       *StatsHandler
	runsHandler        *RunsHandler
	leaderboardHandler *LeaderboardHandler
	scoresHandler      *ScoresHandler
	dashboardHandler   *dashboardHandler
}

// NewServer creates a new API server with all handlers. An empty authToken
// leaves the run-trigger endpoints open.
func NewServer(deps Dependencies, statsProvider StatsProvider, authToken string) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		metricsHandler:     NewMetricsHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		runsHandler:        NewRunsHandler(deps, authToken),
		leaderboardHandler: NewLeaderboardHandler(deps),
		scoresHandler:      NewScoresHandler(deps),
		dashboardHandler:   newDashboardHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.metricsHandler.HandleMetrics)
	mux.HandleFunc("/dashboard", s.dashboardHandler.HandleDashboard)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/run/morning", MetricsMiddleware(s.runsHandler.HandleMorningRun, "run_morning"))
	mux.HandleFunc("/run/evening", MetricsMiddleware(s.runsHandler.HandleEveningRun, "run_evening"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/scores/", MetricsMiddleware(s.scoresHandler.HandleGetScores, "scores"))
}

type healthResponse struct {
	Status string `json:"status"`
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
