package testrun

import (
	"time"

	"github.com/pitchside/tally/internal/domain/model"
)

// Config holds configuration for a verification run
type Config struct {
	BaseURL    string        // Base URL of a running service; empty runs the engine in-process
	Date       string        // Day under test, YYYY-MM-DD
	Fixtures   int           // Number of synthetic fixtures to generate
	Picks      int           // Predictions per source (the ledger caps a source's day at 5)
	Token      string        // Bearer token for run triggers in HTTP mode
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // Output file for the generated day
	LogFile    string        // Log file for test output
	Verbose    bool          // Enable verbose logging
}

// Expectation is the known-correct verdict for one synthetic prediction.
type Expectation struct {
	Source   string
	HomeTeam string
	AwayTeam string
	Call     model.Outcome
	Want     model.VerdictStatus
}

// Day is a generated test day: fixtures with derivable outcomes and
// per-source predictions whose verdicts are known up front.
type Day struct {
	Date         string
	Sources      []string
	Fixtures     []model.MatchResult
	Predictions  map[string][]model.Prediction
	Expectations []Expectation
}

// Stats holds verification statistics
type Stats struct {
	FixturesGenerated    int
	PredictionsGenerated int
	VerdictsChecked      int
	VerdictMismatches    int
	CellsChecked         int
	CellMismatches       int
	StartTime            time.Time
	EndTime              time.Time
	Duration             time.Duration
}

// Serialized forms for the saved day. Calls and expected verdicts render
// as their wire codes.
type fixtureRec struct {
	HomeTeam  string `json:"home_team"`
	AwayTeam  string `json:"away_team"`
	ShortHome string `json:"short_home,omitempty"`
	ShortAway string `json:"short_away,omitempty"`
	HomeScore *int   `json:"home_score,omitempty"`
	AwayScore *int   `json:"away_score,omitempty"`
}

type pickRec struct {
	Source   string `json:"source"`
	HomeTeam string `json:"home_team"`
	AwayTeam string `json:"away_team"`
	Call     string `json:"call"`
	Want     string `json:"want"`
}

type dayFile struct {
	Date     string       `json:"date"`
	Fixtures []fixtureRec `json:"fixtures"`
	Picks    []pickRec    `json:"picks"`
}
