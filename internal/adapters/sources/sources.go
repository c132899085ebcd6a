// Package sources defines the contract prediction sources implement and a
// pool that collects from all of them concurrently.
//
// A source is anything that can produce a day's 1X2 picks: the site
// scrapers under this directory and the oracle client all satisfy Source.
// The pool treats them uniformly, so a run neither knows nor cares how a
// source gets its picks.
package sources

import (
	"context"
	"time"

	"github.com/pitchside/tally/internal/domain/model"
)

// Source produces one day's predictions for a single site.
type Source interface {
	// Name returns the stable source identifier used in the ledger and
	// leaderboard.
	Name() string

	// Fetch collects the source's current picks. An error means the whole
	// source failed for the day; partial sets are returned without error.
	Fetch(ctx context.Context) ([]model.Prediction, error)
}

// Result is one source's outcome from a pool run.
type Result struct {
	Name        string
	Predictions []model.Prediction
	Err         error

	// Elapsed is how long the fetch took. Zero when the fetch never
	// started, e.g. the pool context was already cancelled.
	Elapsed time.Duration
}
