// Package types contains common types used across the application
package types

// Run status values derived from step outcomes.
const (
	RunStatusOK      = "ok"
	RunStatusPartial = "partial"
	RunStatusError   = "error"
)

// StepReport records the outcome of one pipeline step within a run.
type StepReport struct {
	Name       string `json:"name"`
	OK         bool   `json:"ok"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// RunReport summarizes one triggered pipeline run.
type RunReport struct {
	RunID  string       `json:"run_id"`
	Mode   string       `json:"mode"`
	Date   string       `json:"date"`
	Status string       `json:"status"`
	Steps  []StepReport `json:"steps"`
}

// StatusOf derives the run status from its steps: ok when every step
// succeeded, error when every step failed, partial otherwise. A run with
// no steps is an error.
func StatusOf(steps []StepReport) string {
	if len(steps) == 0 {
		return RunStatusError
	}
	passed := 0
	for _, s := range steps {
		if s.OK {
			passed++
		}
	}
	switch passed {
	case len(steps):
		return RunStatusOK
	case 0:
		return RunStatusError
	default:
		return RunStatusPartial
	}
}

// LeaderboardView is the rendered leaderboard exposed over HTTP: a header
// row and body rows as produced by the aggregator.
type LeaderboardView struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}
