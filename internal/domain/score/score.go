// Package score grades collected predictions against official results.
package score

import (
	"context"
	"fmt"

	"github.com/pitchside/tally/internal/domain/match"
	"github.com/pitchside/tally/internal/domain/model"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithMatcher sets the fuzzy matcher used to pair predictions with results.
func WithMatcher(m *match.Matcher) Option {
	return func(e *Engine) {
		if m != nil {
			e.matcher = m
		}
	}
}

// SourceBatch groups one source's predictions for the graded date. Sources
// that produced nothing still contribute an empty batch so their summary is
// emitted with zero counts.
type SourceBatch struct {
	Source      string
	Predictions []model.Prediction
}

// Input carries one date's predictions and official results.
type Input struct {
	Date    string // YYYY-MM-DD
	Batches []SourceBatch
	Results []model.MatchResult
}

// Result contains per-prediction verdicts and per-source summaries. Verdicts
// keep batch order; Summaries keep one entry per input batch in order.
type Result struct {
	Verdicts  []model.Verdict
	Summaries []model.DaySummary
}

// Scorer grades a day of predictions against its results.
type Scorer interface {
	// Score grades the input, honoring ctx for cancellation.
	Score(ctx context.Context, in Input) (Result, error)
}

// Engine implements Scorer with fuzzy pairing and ternary verdicts.
type Engine struct {
	matcher *match.Matcher
}

// New creates an Engine with configuration options.
func New(opts ...Option) *Engine {
	e := &Engine{
		matcher: match.New(),
	}

	// Apply all options
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Score grades every batch in input order. Matching is decided before
// outcome validity: a prediction that pairs with a result whose outcome is
// unknown stays unmatched rather than counting against the source.
func (e *Engine) Score(ctx context.Context, in Input) (Result, error) {
	out := Result{
		Verdicts:  make([]model.Verdict, 0, totalPredictions(in.Batches)),
		Summaries: make([]model.DaySummary, 0, len(in.Batches)),
	}

	for _, batch := range in.Batches {
		select {
		case <-ctx.Done():
			return Result{}, fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
		}

		summary := model.DaySummary{Date: in.Date, Source: batch.Source}
		for _, pred := range batch.Predictions {
			verdict := e.grade(in.Date, batch.Source, pred, in.Results)
			switch verdict.Status {
			case model.StatusCorrect:
				summary.Total++
				summary.Correct++
			case model.StatusIncorrect:
				summary.Total++
			case model.StatusUnmatched:
				summary.Unmatched++
			}
			out.Verdicts = append(out.Verdicts, verdict)
		}
		out.Summaries = append(out.Summaries, summary)
	}

	return out, nil
}

// grade scores a single prediction against the day's results.
func (e *Engine) grade(date, source string, pred model.Prediction, results []model.MatchResult) model.Verdict {
	v := model.Verdict{
		Date:     date,
		Source:   source,
		HomeTeam: pred.HomeTeam,
		AwayTeam: pred.AwayTeam,
		Call:     pred.Call,
		Status:   model.StatusUnmatched,
	}

	idx, ok := e.matcher.Find(pred.HomeTeam, pred.AwayTeam, results)
	if !ok {
		return v
	}

	outcome := results[idx].FinalOutcome()
	if outcome == model.OutcomeUnknown {
		return v
	}

	v.Result = outcome
	if pred.Call == outcome {
		v.Status = model.StatusCorrect
	} else {
		v.Status = model.StatusIncorrect
	}
	return v
}

func totalPredictions(batches []SourceBatch) int {
	n := 0
	for _, b := range batches {
		n += len(b.Predictions)
	}
	return n
}
