// Package model contains domain models passed between layers.
package model

// DateFormat is the layout for run dates used across snapshots, the ledger
// and the HTTP API.
const DateFormat = "2006-01-02"

// Prediction is a single 1X2 pick collected from a source.
type Prediction struct {
	Source   string  // source id, e.g., "forebet"
	HomeTeam string  // home team as published by the source
	AwayTeam string  // away team as published by the source
	Call     Outcome // the 1X2 call
}

// MatchResult is an official fixture outcome for one date.
// Short name variants widen the matcher's search space when present.
type MatchResult struct {
	HomeTeam    string
	AwayTeam    string
	ShortHome   string  // optional short variant, "" when absent
	ShortAway   string  // optional short variant, "" when absent
	Winner      Outcome // explicit winner from the feed, Unknown when absent
	HomeScore   *int    // full-time score, nil when unknown
	AwayScore   *int    // full-time score, nil when unknown
	Competition string
}

// FinalOutcome derives the 1X2 outcome of the fixture. An explicit winner
// takes precedence; otherwise both full-time scores must be present for a
// numeric comparison. Unknown when neither applies.
func (r MatchResult) FinalOutcome() Outcome {
	if r.Winner != OutcomeUnknown {
		return r.Winner
	}
	if r.HomeScore == nil || r.AwayScore == nil {
		return OutcomeUnknown
	}
	switch {
	case *r.HomeScore > *r.AwayScore:
		return OutcomeHome
	case *r.HomeScore == *r.AwayScore:
		return OutcomeDraw
	default:
		return OutcomeAway
	}
}

// Verdict is one scored prediction for a date.
type Verdict struct {
	Date     string // YYYY-MM-DD
	Source   string
	HomeTeam string // as published by the source
	AwayTeam string // as published by the source
	Call     Outcome
	Result   Outcome // derived fixture outcome, Unknown when unmatched
	Status   VerdictStatus
}

// DaySummary aggregates one source's verdicts for a date. Total and Correct
// count only matched predictions; Unmatched tracks the rest.
type DaySummary struct {
	Date      string
	Source    string
	Total     int
	Correct   int
	Unmatched int
}
