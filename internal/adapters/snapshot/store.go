// Package snapshot persists per-date pipeline documents as flat JSON files.
//
// Three document kinds exist per run date: one predictions snapshot per
// source, one results snapshot, and one scores snapshot. Snapshots are the
// only hand-off between the morning and evening runs, so their JSON shape is
// part of the service's external surface.
package snapshot

import (
	"context"

	"github.com/pitchside/tally/internal/domain/model"
	"github.com/pitchside/tally/internal/domain/score"
)

// Snapshot status values.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// PredictionRec is one 1X2 pick inside a predictions snapshot.
type PredictionRec struct {
	HomeTeam   string `json:"home_team"`
	AwayTeam   string `json:"away_team"`
	Prediction string `json:"prediction"` // "1", "X" or "2"
}

// PredictionsDoc is the per-source predictions snapshot for one date.
type PredictionsDoc struct {
	Date        string          `json:"date"`
	SourceID    string          `json:"source_id"`
	Status      string          `json:"status"` // "ok" or "failed"
	Error       string          `json:"error,omitempty"`
	Predictions []PredictionRec `json:"predictions"`
}

// NewPredictionsDoc builds an ok-status snapshot from collected predictions.
func NewPredictionsDoc(date, source string, preds []model.Prediction) PredictionsDoc {
	recs := make([]PredictionRec, 0, len(preds))
	for _, p := range preds {
		recs = append(recs, PredictionRec{
			HomeTeam:   p.HomeTeam,
			AwayTeam:   p.AwayTeam,
			Prediction: p.Call.Code(),
		})
	}
	return PredictionsDoc{Date: date, SourceID: source, Status: StatusOK, Predictions: recs}
}

// FailedPredictionsDoc builds a failed-status snapshot recording why the
// source produced nothing.
func FailedPredictionsDoc(date, source string, cause error) PredictionsDoc {
	doc := PredictionsDoc{Date: date, SourceID: source, Status: StatusFailed, Predictions: []PredictionRec{}}
	if cause != nil {
		doc.Error = cause.Error()
	}
	return doc
}

// Models converts the snapshot back to domain predictions. Records whose
// code fails to parse are skipped; they cannot be graded.
func (d PredictionsDoc) Models() []model.Prediction {
	preds := make([]model.Prediction, 0, len(d.Predictions))
	for _, rec := range d.Predictions {
		call, ok := model.ParseOutcome(rec.Prediction)
		if !ok {
			continue
		}
		preds = append(preds, model.Prediction{
			Source:   d.SourceID,
			HomeTeam: rec.HomeTeam,
			AwayTeam: rec.AwayTeam,
			Call:     call,
		})
	}
	return preds
}

// ResultRec is one official fixture inside a results snapshot. Result is
// null when the feed had neither a winner nor full-time scores.
type ResultRec struct {
	HomeTeam    string  `json:"home_team"`
	AwayTeam    string  `json:"away_team"`
	ShortHome   string  `json:"short_home,omitempty"`
	ShortAway   string  `json:"short_away,omitempty"`
	Result      *string `json:"result"` // "1", "X", "2" or null
	HomeScore   *int    `json:"home_score,omitempty"`
	AwayScore   *int    `json:"away_score,omitempty"`
	Competition string  `json:"competition,omitempty"`
}

// ResultsDoc is the official results snapshot for one date.
type ResultsDoc struct {
	Date    string      `json:"date"`
	Status  string      `json:"status"` // "ok" or "failed"
	Error   string      `json:"error,omitempty"`
	Matches []ResultRec `json:"matches"`
}

// NewResultsDoc builds an ok-status snapshot from fetched results.
func NewResultsDoc(date string, matches []model.MatchResult) ResultsDoc {
	recs := make([]ResultRec, 0, len(matches))
	for _, m := range matches {
		rec := ResultRec{
			HomeTeam:    m.HomeTeam,
			AwayTeam:    m.AwayTeam,
			ShortHome:   m.ShortHome,
			ShortAway:   m.ShortAway,
			HomeScore:   m.HomeScore,
			AwayScore:   m.AwayScore,
			Competition: m.Competition,
		}
		if code := m.FinalOutcome().Code(); code != "" {
			rec.Result = &code
		}
		recs = append(recs, rec)
	}
	return ResultsDoc{Date: date, Status: StatusOK, Matches: recs}
}

// FailedResultsDoc builds a failed-status snapshot recording why results
// could not be fetched.
func FailedResultsDoc(date string, cause error) ResultsDoc {
	doc := ResultsDoc{Date: date, Status: StatusFailed, Matches: []ResultRec{}}
	if cause != nil {
		doc.Error = cause.Error()
	}
	return doc
}

// Models converts the snapshot back to domain results. The stored result
// code becomes the winner; unparseable or null codes leave it unknown.
func (d ResultsDoc) Models() []model.MatchResult {
	matches := make([]model.MatchResult, 0, len(d.Matches))
	for _, rec := range d.Matches {
		m := model.MatchResult{
			HomeTeam:    rec.HomeTeam,
			AwayTeam:    rec.AwayTeam,
			ShortHome:   rec.ShortHome,
			ShortAway:   rec.ShortAway,
			HomeScore:   rec.HomeScore,
			AwayScore:   rec.AwayScore,
			Competition: rec.Competition,
		}
		if rec.Result != nil {
			if winner, ok := model.ParseOutcome(*rec.Result); ok {
				m.Winner = winner
			}
		}
		matches = append(matches, m)
	}
	return matches
}

// SummaryRec is one source's counters inside a scores snapshot.
type SummaryRec struct {
	Total     int `json:"total"`
	Correct   int `json:"correct"`
	Unmatched int `json:"unmatched"`
}

// DetailRec is one graded prediction inside a scores snapshot. Result and
// Correct render "UNMATCHED" for predictions that never paired with a
// usable fixture.
type DetailRec struct {
	SourceID   string `json:"source_id"`
	HomeTeam   string `json:"home_team"`
	AwayTeam   string `json:"away_team"`
	Prediction string `json:"prediction"`
	Result     string `json:"result"`  // "1", "X", "2" or "UNMATCHED"
	Correct    string `json:"correct"` // "Y", "N" or "UNMATCHED"
}

// ScoresDoc is the scoring snapshot for one date.
type ScoresDoc struct {
	Date    string                `json:"date"`
	Summary map[string]SummaryRec `json:"summary"`
	Details []DetailRec           `json:"details"`
}

// NewScoresDoc builds the snapshot from a scoring run.
func NewScoresDoc(date string, res score.Result) ScoresDoc {
	doc := ScoresDoc{
		Date:    date,
		Summary: make(map[string]SummaryRec, len(res.Summaries)),
		Details: make([]DetailRec, 0, len(res.Verdicts)),
	}
	for _, s := range res.Summaries {
		doc.Summary[s.Source] = SummaryRec{Total: s.Total, Correct: s.Correct, Unmatched: s.Unmatched}
	}
	for _, v := range res.Verdicts {
		rec := DetailRec{
			SourceID:   v.Source,
			HomeTeam:   v.HomeTeam,
			AwayTeam:   v.AwayTeam,
			Prediction: v.Call.Code(),
			Correct:    v.Status.Code(),
		}
		if v.Status == model.StatusUnmatched {
			rec.Result = model.StatusUnmatched.Code()
		} else {
			rec.Result = v.Result.Code()
		}
		doc.Details = append(doc.Details, rec)
	}
	return doc
}

// Store provides read/write access to per-date snapshots.
type Store interface {
	// WritePredictions persists one source's predictions snapshot.
	WritePredictions(ctx context.Context, doc PredictionsDoc) error
	// ReadPredictions loads one source's predictions snapshot.
	// Returns ErrNotFound when no snapshot exists for (source, date).
	ReadPredictions(ctx context.Context, source, date string) (PredictionsDoc, error)

	// WriteResults persists the results snapshot.
	WriteResults(ctx context.Context, doc ResultsDoc) error
	// ReadResults loads the results snapshot for a date.
	// Returns ErrNotFound when no snapshot exists.
	ReadResults(ctx context.Context, date string) (ResultsDoc, error)

	// WriteScores persists the scores snapshot.
	WriteScores(ctx context.Context, doc ScoresDoc) error
	// ReadScores loads the scores snapshot for a date.
	// Returns ErrNotFound when no snapshot exists.
	ReadScores(ctx context.Context, date string) (ScoresDoc, error)
}
