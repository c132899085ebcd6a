package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pitchside/tally/internal/adapters/snapshot"
	"github.com/pitchside/tally/internal/adapters/sources"
	"github.com/pitchside/tally/internal/domain/model"
	"github.com/pitchside/tally/internal/domain/runguard"
	"github.com/pitchside/tally/internal/domain/score"
	"github.com/pitchside/tally/internal/domain/types"
	"github.com/pitchside/tally/pkg/logger"
	"github.com/pitchside/tally/pkg/metrics"
)

const (
	modeMorning = "morning"
	modeEvening = "evening"

	stepFetchResults       = "fetch_results"
	stepScore              = "score"
	stepUpdateLedger       = "update_ledger"
	stepRebuildLeaderboard = "rebuild_leaderboard"
)

// RunMorning collects the day's predictions from every source and records
// them in the snapshots and the ledger. Source failures become failed steps
// in the report, never an error: one dead site must not cost the others
// their day.
func (s *Service) RunMorning(ctx context.Context, date string) (types.RunReport, error) {
	if err := s.admit(ctx, modeMorning, date); err != nil {
		return types.RunReport{}, err
	}
	defer s.guard.Release(ctx, modeMorning, date)

	report := types.RunReport{
		RunID: uuid.New().String(),
		Mode:  modeMorning,
		Date:  date,
	}
	s.logger.Info(ctx, "morning run started",
		logger.String("runID", report.RunID),
		logger.String("date", date),
		logger.Int("sources", len(s.srcs)),
	)

	fetchCtx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	collected := s.pool.FetchAll(fetchCtx, s.srcs)
	cancel()

	for _, res := range collected {
		report.Steps = append(report.Steps, s.recordPredictions(ctx, date, res))
	}

	s.finishRun(ctx, &report)
	return report, nil
}

// RunEvening fetches the day's finished matches, scores the morning
// snapshots against them, settles the ledger and rewrites the leaderboard.
// When a step fails, the steps depending on it are reported as skipped.
func (s *Service) RunEvening(ctx context.Context, date string) (types.RunReport, error) {
	if err := s.admit(ctx, modeEvening, date); err != nil {
		return types.RunReport{}, err
	}
	defer s.guard.Release(ctx, modeEvening, date)

	report := types.RunReport{
		RunID: uuid.New().String(),
		Mode:  modeEvening,
		Date:  date,
	}
	s.logger.Info(ctx, "evening run started",
		logger.String("runID", report.RunID),
		logger.String("date", date),
	)

	var matches []model.MatchResult
	step := s.runStep(ctx, stepFetchResults, func(stepCtx context.Context) error {
		var err error
		matches, err = s.results.FetchFinished(stepCtx, date)
		if err != nil {
			// A failure marker keeps the day visible in the snapshots
			// even though nothing could be fetched.
			if werr := s.snapshots.WriteResults(ctx, snapshot.FailedResultsDoc(date, err)); werr != nil {
				s.logger.Error(ctx, "failed-results snapshot write failed",
					logger.String("date", date),
					logger.Error(werr),
				)
			}
			return err
		}
		return s.snapshots.WriteResults(stepCtx, snapshot.NewResultsDoc(date, matches))
	})
	report.Steps = append(report.Steps, step)
	if !step.OK {
		report.Steps = append(report.Steps,
			skippedStep(stepScore),
			skippedStep(stepUpdateLedger),
			skippedStep(stepRebuildLeaderboard),
		)
		s.finishRun(ctx, &report)
		return report, nil
	}

	var scored score.Result
	step = s.runStep(ctx, stepScore, func(stepCtx context.Context) error {
		start := time.Now()
		in := score.Input{
			Date:    date,
			Batches: s.readBatches(stepCtx, date),
			Results: matches,
		}

		var err error
		scored, err = s.scorer.Score(stepCtx, in)
		if err != nil {
			return err
		}
		metrics.RecordScoringDuration(float64(time.Since(start).Milliseconds()))
		for _, v := range scored.Verdicts {
			metrics.RecordVerdict(v.Source, v.Status.String())
		}

		return s.snapshots.WriteScores(stepCtx, snapshot.NewScoresDoc(date, scored))
	})
	report.Steps = append(report.Steps, step)
	if !step.OK {
		report.Steps = append(report.Steps,
			skippedStep(stepUpdateLedger),
			skippedStep(stepRebuildLeaderboard),
		)
		s.finishRun(ctx, &report)
		return report, nil
	}

	step = s.runStep(ctx, stepUpdateLedger, func(stepCtx context.Context) error {
		updated, err := s.book.ApplyVerdicts(stepCtx, date, scored.Verdicts)
		if err != nil {
			return err
		}
		s.logger.Info(stepCtx, "ledger settled",
			logger.String("date", date),
			logger.Int("rows", updated),
		)
		return nil
	})
	report.Steps = append(report.Steps, step)
	if !step.OK {
		// Rebuilding from a half-settled ledger would publish standings
		// that disagree with the day's verdicts.
		report.Steps = append(report.Steps, skippedStep(stepRebuildLeaderboard))
		s.finishRun(ctx, &report)
		return report, nil
	}

	step = s.runStep(ctx, stepRebuildLeaderboard, func(stepCtx context.Context) error {
		start := time.Now()
		history, err := s.book.History(stepCtx)
		if err != nil {
			return err
		}

		table := s.agg.Rebuild(history)
		if err := s.book.WriteLeaderboard(stepCtx, table); err != nil {
			return err
		}
		metrics.RecordLeaderboardRebuild()
		metrics.RecordLeaderboardRebuildDuration(float64(time.Since(start).Milliseconds()))
		metrics.UpdateLeaderboardSources(len(table.Rows))
		return nil
	})
	report.Steps = append(report.Steps, step)

	s.finishRun(ctx, &report)
	return report, nil
}

// admit refuses runs before Start and duplicate runs for the same mode and
// date. The guard stays held until the run returns.
func (s *Service) admit(ctx context.Context, mode, date string) error {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()

	if !started {
		return ErrNotStarted
	}
	if !s.guard.Acquire(ctx, mode, date) {
		return fmt.Errorf("%w: %s %s", runguard.ErrInFlight, mode, date)
	}
	return nil
}

// recordPredictions turns one source's fetch outcome into a report step,
// persisting either the day's picks or a failure marker.
func (s *Service) recordPredictions(ctx context.Context, date string, res sources.Result) types.StepReport {
	step := types.StepReport{
		Name:       "fetch_" + res.Name,
		DurationMS: res.Elapsed.Milliseconds(),
	}

	if res.Err != nil {
		step.Error = res.Err.Error()
		if err := s.snapshots.WritePredictions(ctx, snapshot.FailedPredictionsDoc(date, res.Name, res.Err)); err != nil {
			s.logger.Error(ctx, "failed-predictions snapshot write failed",
				logger.String("source", res.Name),
				logger.Error(err),
			)
		}
		if err := s.book.RecordFailure(ctx, date, res.Name); err != nil {
			s.logger.Error(ctx, "ledger failure record failed",
				logger.String("source", res.Name),
				logger.Error(err),
			)
		}
		return step
	}

	if err := s.snapshots.WritePredictions(ctx, snapshot.NewPredictionsDoc(date, res.Name, res.Predictions)); err != nil {
		step.Error = err.Error()
		return step
	}
	if err := s.book.RecordPredictions(ctx, date, res.Name, res.Predictions); err != nil {
		step.Error = err.Error()
		return step
	}

	step.OK = true
	return step
}

// readBatches loads the morning snapshots for every configured source. A
// missing or failed snapshot yields an empty batch so the source still
// appears in the day's summary with zero picks.
func (s *Service) readBatches(ctx context.Context, date string) []score.SourceBatch {
	batches := make([]score.SourceBatch, 0, len(s.sourceIDs))
	for _, id := range s.sourceIDs {
		batch := score.SourceBatch{Source: id}

		doc, err := s.snapshots.ReadPredictions(ctx, id, date)
		switch {
		case err == nil:
			batch.Predictions = doc.Models()
		case errors.Is(err, snapshot.ErrNotFound):
			s.logger.Warn(ctx, "no predictions snapshot",
				logger.String("source", id),
				logger.String("date", date),
			)
		default:
			s.logger.Error(ctx, "predictions snapshot read failed",
				logger.String("source", id),
				logger.String("date", date),
				logger.Error(err),
			)
		}

		batches = append(batches, batch)
	}
	return batches
}

// runStep executes fn under the step timeout and folds the outcome into a
// report step.
func (s *Service) runStep(ctx context.Context, name string, fn func(context.Context) error) types.StepReport {
	stepCtx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()

	start := time.Now()
	err := fn(stepCtx)

	step := types.StepReport{
		Name:       name,
		OK:         err == nil,
		DurationMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		step.Error = err.Error()
		metrics.RecordErrorByComponent("pipeline", name)
		s.logger.Warn(ctx, "run step failed",
			logger.String("step", name),
			logger.Error(err),
		)
	}
	return step
}

func skippedStep(name string) types.StepReport {
	return types.StepReport{Name: name, Error: "skipped: earlier step failed"}
}

// finishRun derives the overall status and records the run's metrics.
func (s *Service) finishRun(ctx context.Context, report *types.RunReport) {
	report.Status = types.StatusOf(report.Steps)

	for _, step := range report.Steps {
		metrics.RecordPipelineStepDuration(step.Name, float64(step.DurationMS))
	}
	metrics.RecordPipelineRun(report.Mode, report.Status)
	metrics.UpdatePipelineLastRun(time.Now())
	if rows, err := s.book.Count(ctx); err == nil {
		metrics.UpdateLedgerRows(rows)
	}

	s.logger.Info(ctx, "run complete",
		logger.String("runID", report.RunID),
		logger.String("mode", report.Mode),
		logger.String("date", report.Date),
		logger.String("status", report.Status),
		logger.Int("steps", len(report.Steps)),
	)
}
