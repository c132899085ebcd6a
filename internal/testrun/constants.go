package testrun

import "time"

const (
	// DefaultFixtures is how many synthetic fixtures a run generates.
	DefaultFixtures = 8

	// DefaultPicks is how many predictions each source makes per day.
	DefaultPicks = 5

	// MaxPicks matches the ledger's per-source daily row cap. Predictions
	// beyond it would score but never settle, so verification caps here.
	MaxPicks = 5

	// DefaultTimeout bounds each HTTP request in URL mode.
	DefaultTimeout = 30 * time.Second

	// RunTimeout bounds the whole verification run.
	RunTimeout = 10 * time.Minute

	// noCell mirrors the leaderboard's rendering of a cell without data.
	noCell = "—"

	// noAverage ranks below every real average when ordering is checked.
	noAverage = -1

	percentBase = 100
)
