// Package service provides the core business service that implements
// the dependencies required by the HTTP API: the morning and evening
// pipeline runs plus the leaderboard and score queries built on them.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pitchside/tally/internal/adapters/ledger"
	"github.com/pitchside/tally/internal/adapters/results"
	"github.com/pitchside/tally/internal/adapters/snapshot"
	"github.com/pitchside/tally/internal/adapters/sources"
	"github.com/pitchside/tally/internal/adapters/sources/forebet"
	"github.com/pitchside/tally/internal/adapters/sources/freesupertips"
	"github.com/pitchside/tally/internal/adapters/sources/onemillion"
	"github.com/pitchside/tally/internal/adapters/sources/oracle"
	"github.com/pitchside/tally/internal/adapters/sources/predictz"
	"github.com/pitchside/tally/internal/adapters/sources/vitibet"
	"github.com/pitchside/tally/internal/adapters/sources/webclient"
	"github.com/pitchside/tally/internal/domain/leaderboard"
	"github.com/pitchside/tally/internal/domain/match"
	"github.com/pitchside/tally/internal/domain/model"
	"github.com/pitchside/tally/internal/domain/normalize"
	"github.com/pitchside/tally/internal/domain/runguard"
	"github.com/pitchside/tally/internal/domain/score"
	"github.com/pitchside/tally/internal/domain/types"
	"github.com/pitchside/tally/pkg/logger"
	"github.com/pitchside/tally/pkg/metrics"
)

// ResultsFetcher supplies a day's finished matches. The production
// implementation is the football-data.org client under adapters/results.
type ResultsFetcher interface {
	FetchFinished(ctx context.Context, date string) ([]model.MatchResult, error)
}

// Service implements the API dependencies for the prediction tally system.
type Service struct {
	mu sync.RWMutex

	// Core components
	book      *ledger.Ledger
	snapshots snapshot.Store
	guard     runguard.Guard
	scorer    score.Scorer
	agg       *leaderboard.Aggregator
	pool      *sources.Pool
	srcs      []sources.Source
	results   ResultsFetcher

	// Configuration
	dataDir           string
	sourceIDs         []string
	fuzzyThreshold    float64
	suffixTokens      []string
	stepTimeout       time.Duration
	scrapeTimeout     time.Duration
	scrapeConcurrency int
	userAgent         string
	resultsBaseURL    string
	resultsToken      string
	resultsWindowDays int
	resultsTimeout    time.Duration
	oracleBaseURL     string
	oracleAPIKey      string
	oracleModel       string
	oracleMaxTokens   int
	oraclePicks       int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		dataDir:           "./data",
		sourceIDs:         []string{"forebet", "predictz", "onemillion", "vitibet", "freesupertips", "oracle"},
		fuzzyThreshold:    match.DefaultThreshold,
		stepTimeout:       2 * time.Minute,
		scrapeTimeout:     30 * time.Second,
		scrapeConcurrency: 4,
		resultsWindowDays: 1,
		resultsTimeout:    15 * time.Second,
		logger:            nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting tally service...")

	s.book = ledger.New(ledger.WithDir(s.dataDir))
	s.snapshots = snapshot.NewFileStore(snapshot.WithDir(s.dataDir))
	s.guard = runguard.NewInMemoryGuard()

	// WithSuffixes replaces the default token set, so only pass it when
	// the deployment actually configured one.
	var normOpts []normalize.Option
	if len(s.suffixTokens) > 0 {
		normOpts = append(normOpts, normalize.WithSuffixes(s.suffixTokens))
	}
	norm := normalize.New(normOpts...)
	matcher := match.New(
		match.WithNormalizer(norm),
		match.WithThreshold(s.fuzzyThreshold),
		match.WithObserver(func(combined float64, accepted bool) {
			metrics.RecordMatchAttempt()
			metrics.RecordMatchCombinedScore(combined)
			if accepted {
				metrics.RecordMatchAccepted()
			}
		}),
	)
	s.scorer = score.New(score.WithMatcher(matcher))
	s.agg = leaderboard.New(leaderboard.WithSources(s.sourceIDs))
	s.pool = sources.NewPool(sources.WithWorkers(s.scrapeConcurrency))

	if s.results == nil {
		s.results = results.New(
			results.WithBaseURL(s.resultsBaseURL),
			results.WithToken(s.resultsToken),
			results.WithWindowDays(s.resultsWindowDays),
			results.WithTimeout(s.resultsTimeout),
		)
	}
	if s.srcs == nil {
		s.srcs = s.buildSources(ctx)
	}

	s.started = true
	s.logger.Info(ctx, "tally service started",
		logger.String("dataDir", s.dataDir),
		logger.Int("sources", len(s.srcs)),
		logger.Float64("fuzzyThreshold", s.fuzzyThreshold),
	)

	return nil
}

// Stop shuts down the service. Snapshots and the ledger are written
// through on every run, so there is nothing to flush here.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.started = false
	s.logger.Info(context.Background(), "tally service stopped")
}

// buildSources constructs one Source per configured identifier. The site
// scrapers share a single web client so they present one browser identity.
func (s *Service) buildSources(ctx context.Context) []sources.Source {
	web := webclient.New(
		webclient.WithUserAgent(s.userAgent),
		webclient.WithTimeout(s.scrapeTimeout),
	)

	built := make([]sources.Source, 0, len(s.sourceIDs))
	for _, id := range s.sourceIDs {
		switch id {
		case "forebet":
			built = append(built, forebet.New(web))
		case "predictz":
			built = append(built, predictz.New(web))
		case "onemillion":
			built = append(built, onemillion.New(web))
		case "vitibet":
			built = append(built, vitibet.New(web))
		case "freesupertips":
			built = append(built, freesupertips.New(web))
		case "oracle":
			built = append(built, oracle.New(
				oracle.WithBaseURL(s.oracleBaseURL),
				oracle.WithAPIKey(s.oracleAPIKey),
				oracle.WithModel(s.oracleModel),
				oracle.WithMaxTokens(s.oracleMaxTokens),
				oracle.WithPicks(s.oraclePicks),
			))
		default:
			s.logger.Warn(ctx, "unknown source id, skipping",
				logger.String("source", id),
			)
		}
	}
	return built
}

// Leaderboard rebuilds the all-time standings from the ledger. The table is
// always derived fresh so a restart or hand-edited ledger never serves a
// stale ranking.
func (s *Service) Leaderboard(ctx context.Context) (types.LeaderboardView, error) {
	s.mu.RLock()
	started := s.started
	book := s.book
	agg := s.agg
	s.mu.RUnlock()

	if !started {
		return types.LeaderboardView{}, ErrNotStarted
	}

	start := time.Now()
	history, err := book.History(ctx)
	if err != nil {
		return types.LeaderboardView{}, fmt.Errorf("leaderboard: %w", err)
	}

	table := agg.Rebuild(history)
	metrics.RecordLeaderboardRebuild()
	metrics.RecordLeaderboardRebuildDuration(float64(time.Since(start).Milliseconds()))
	metrics.UpdateLeaderboardSources(len(table.Rows))

	return types.LeaderboardView{
		Header: table.Header(),
		Rows:   table.Records(),
	}, nil
}

// Scores returns the stored scoring detail for one day.
func (s *Service) Scores(ctx context.Context, date string) (snapshot.ScoresDoc, error) {
	s.mu.RLock()
	started := s.started
	snapshots := s.snapshots
	s.mu.RUnlock()

	if !started {
		return snapshot.ScoresDoc{}, ErrNotStarted
	}

	return snapshots.ReadScores(ctx, date)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":  s.started,
		"sources":  len(s.sourceIDs),
		"data_dir": s.dataDir,
	}

	if s.started {
		ctx := context.Background()
		if rows, err := s.book.Count(ctx); err == nil {
			stats["ledger_rows"] = rows
			metrics.UpdateLedgerRows(rows)
		}
		inflight := s.guard.InFlight()
		stats["runs_in_flight"] = inflight
	}

	return stats
}
