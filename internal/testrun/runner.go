package testrun

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pitchside/tally/internal/adapters/sources"
	service "github.com/pitchside/tally/internal/app"
	"github.com/pitchside/tally/internal/domain/model"
	"github.com/pitchside/tally/internal/domain/types"
	"github.com/pitchside/tally/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o600
)

// Run executes the complete verification run.
func Run(ctx context.Context, config *Config) error {
	if config.Date == "" {
		config.Date = time.Now().Format(model.DateFormat)
	} else if _, err := time.Parse(model.DateFormat, config.Date); err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}

	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting tally verification run",
		logger.String("baseURL", config.BaseURL),
		logger.String("date", config.Date),
		logger.Int("fixtures", config.Fixtures),
		logger.Int("picks", config.Picks),
		logger.String("timeout", config.Timeout.String()),
		logger.String("logFile", config.LogFile),
		logger.Any("verbose", config.Verbose))

	if config.BaseURL != "" {
		return runAgainstService(ctx, config, stats)
	}
	return runInProcess(ctx, config, stats)
}

// runInProcess drives the engine end to end inside this process: generate a
// synthetic day, start a service on a throwaway data directory with canned
// sources, run both pipelines and check the published scores and
// leaderboard against the expected verdicts.
func runInProcess(ctx context.Context, config *Config, stats *Stats) error {
	// Step 1: Generate the synthetic day
	day, err := generateDay(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("day generation failed: %w", err)
	}

	// Step 2: Start the engine on a throwaway data directory
	dataDir, err := os.MkdirTemp("", "tally-testrun-*")
	if err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dataDir); err != nil {
			logger.Get().Error(context.Background(), "failed to remove data directory", logger.Error(err))
		}
	}()

	svc := service.New(
		service.WithDataDir(dataDir),
		service.WithSourceIDs(day.Sources),
		service.WithSources(cannedSources(day)),
		service.WithResultsFetcher(cannedResults{day: day}),
	)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("service start failed: %w", err)
	}
	defer svc.Stop()

	// Step 3: Collect the day's predictions
	morning, err := svc.RunMorning(ctx, day.Date)
	if err != nil {
		return fmt.Errorf("morning run failed: %w", err)
	}
	if morning.Status != types.RunStatusOK {
		return fmt.Errorf("morning run finished %q, want %q", morning.Status, types.RunStatusOK)
	}
	logger.Get().Info(ctx, "morning run finished",
		logger.String("runID", morning.RunID),
		logger.Int("steps", len(morning.Steps)))

	// Step 4: Reconcile and settle the day
	evening, err := svc.RunEvening(ctx, day.Date)
	if err != nil {
		return fmt.Errorf("evening run failed: %w", err)
	}
	if evening.Status != types.RunStatusOK {
		return fmt.Errorf("evening run finished %q, want %q", evening.Status, types.RunStatusOK)
	}
	logger.Get().Info(ctx, "evening run finished",
		logger.String("runID", evening.RunID),
		logger.Int("steps", len(evening.Steps)))

	// Step 5: Verify verdicts against the scores snapshot
	scores, err := svc.Scores(ctx, day.Date)
	if err != nil {
		return fmt.Errorf("scores retrieval failed: %w", err)
	}
	verdictErr := verifyVerdicts(day, scores, stats)

	// Step 6: Verify the rebuilt leaderboard
	view, err := svc.Leaderboard(ctx)
	if err != nil {
		return fmt.Errorf("leaderboard retrieval failed: %w", err)
	}
	boardErr := verifyLeaderboard(day, scores, view, stats)
	displayStandings(view)

	// Step 7: Save the day to file, mismatches or not, for inspection
	if err := saveDayToFile(ctx, config, day); err != nil {
		logger.Get().Warn(ctx, "failed to save day to file", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	if verdictErr != nil {
		return fmt.Errorf("verdict verification failed: %w", verdictErr)
	}
	if boardErr != nil {
		return fmt.Errorf("leaderboard verification failed: %w", boardErr)
	}

	logger.Get().Info(ctx, "verification completed successfully")
	return nil
}

// runAgainstService smoke-tests a deployed service over HTTP: health, an
// evening run trigger, then consistency checks on the published scores and
// leaderboard. Predictions come from the service's own sources there, so
// checks cover internal consistency rather than known verdicts.
func runAgainstService(ctx context.Context, config *Config, stats *Stats) error {
	client := newHTTPClient(config.Timeout, config.Token)

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, client, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Trigger the evening run
	report, err := triggerEveningRun(ctx, client, config)
	if err != nil {
		return fmt.Errorf("evening run failed: %w", err)
	}
	if report.Status == types.RunStatusError {
		return fmt.Errorf("evening run finished with status %q", report.Status)
	}

	// Step 3: Fetch the day's scores
	scores, err := fetchScores(ctx, client, config)
	if err != nil {
		return fmt.Errorf("scores retrieval failed: %w", err)
	}

	// Step 4: Fetch the leaderboard
	view, err := fetchLeaderboard(ctx, client, config)
	if err != nil {
		return fmt.Errorf("leaderboard retrieval failed: %w", err)
	}

	// Step 5: Verify consistency
	scoresErr := verifyScoresConsistency(scores, stats)
	boardErr := verifyLeaderboardShape(view, stats)
	displayStandings(view)

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	if scoresErr != nil {
		return fmt.Errorf("scores verification failed: %w", scoresErr)
	}
	if boardErr != nil {
		return fmt.Errorf("leaderboard verification failed: %w", boardErr)
	}

	logger.Get().Info(ctx, "verification completed successfully")
	return nil
}

// cannedSource serves one source's pre-generated predictions.
type cannedSource struct {
	name  string
	preds []model.Prediction
}

func (s cannedSource) Name() string { return s.name }

func (s cannedSource) Fetch(_ context.Context) ([]model.Prediction, error) {
	return s.preds, nil
}

// cannedSources builds one canned source per roster entry.
func cannedSources(day *Day) []sources.Source {
	out := make([]sources.Source, 0, len(day.Sources))
	for _, name := range day.Sources {
		out = append(out, cannedSource{name: name, preds: day.Predictions[name]})
	}
	return out
}

// cannedResults serves the day's fixtures as the official feed.
type cannedResults struct {
	day *Day
}

func (r cannedResults) FetchFinished(_ context.Context, _ string) ([]model.MatchResult, error) {
	return r.day.Fixtures, nil
}

// saveDayToFile writes the generated day, expectations included, to a JSON
// file for later inspection.
func saveDayToFile(ctx context.Context, config *Config, day *Day) error {
	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "synthetic_day_" + timestamp + ".json"
	}

	// Ensure the directory exists
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	out := dayFile{Date: day.Date}
	for _, f := range day.Fixtures {
		out.Fixtures = append(out.Fixtures, fixtureRec{
			HomeTeam:  f.HomeTeam,
			AwayTeam:  f.AwayTeam,
			ShortHome: f.ShortHome,
			ShortAway: f.ShortAway,
			HomeScore: f.HomeScore,
			AwayScore: f.AwayScore,
		})
	}
	for _, e := range day.Expectations {
		out.Picks = append(out.Picks, pickRec{
			Source:   e.Source,
			HomeTeam: e.HomeTeam,
			AwayTeam: e.AwayTeam,
			Call:     e.Call.Code(),
			Want:     e.Want.Code(),
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal day: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	logger.Get().Info(ctx, "day saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final verification statistics.
func displayFinalStats(stats *Stats) {
	var successRate float64
	checked := stats.VerdictsChecked + stats.CellsChecked
	mismatches := stats.VerdictMismatches + stats.CellMismatches
	if checked > 0 {
		successRate = float64(checked-mismatches) / float64(checked) * percentBase
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("fixturesGenerated", stats.FixturesGenerated),
		logger.Int("predictionsGenerated", stats.PredictionsGenerated),
		logger.Int("verdictsChecked", stats.VerdictsChecked),
		logger.Int("verdictMismatches", stats.VerdictMismatches),
		logger.Int("cellsChecked", stats.CellsChecked),
		logger.Int("cellMismatches", stats.CellMismatches),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate))
}
