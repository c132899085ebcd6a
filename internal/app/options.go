package service

import (
	"time"

	"github.com/pitchside/tally/internal/adapters/sources"
	"github.com/pitchside/tally/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDataDir sets the directory holding snapshots, the ledger and the
// rendered leaderboard.
func WithDataDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.dataDir = dir
		}
	}
}

// WithSourceIDs sets which sources take part in runs and in which column
// order they appear on the leaderboard.
func WithSourceIDs(ids []string) Option {
	return func(s *Service) {
		if len(ids) > 0 {
			s.sourceIDs = ids
		}
	}
}

// WithFuzzyThreshold sets the minimum combined name similarity for pairing
// a prediction with a result.
func WithFuzzyThreshold(threshold float64) Option {
	return func(s *Service) {
		if threshold > 0 {
			s.fuzzyThreshold = threshold
		}
	}
}

// WithSuffixTokens sets the club-name suffixes stripped before matching.
func WithSuffixTokens(tokens []string) Option {
	return func(s *Service) {
		if len(tokens) > 0 {
			s.suffixTokens = tokens
		}
	}
}

// WithStepTimeout bounds each pipeline step.
func WithStepTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.stepTimeout = d
		}
	}
}

// WithScrapeTimeout bounds a single page fetch.
func WithScrapeTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.scrapeTimeout = d
		}
	}
}

// WithScrapeConcurrency sets how many sources are fetched at once.
func WithScrapeConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.scrapeConcurrency = n
		}
	}
}

// WithUserAgent sets the browser identity the scrapers present.
func WithUserAgent(ua string) Option {
	return func(s *Service) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// WithResultsBaseURL overrides the results API base URL.
func WithResultsBaseURL(u string) Option {
	return func(s *Service) {
		if u != "" {
			s.resultsBaseURL = u
		}
	}
}

// WithResultsToken sets the results API credential.
func WithResultsToken(token string) Option {
	return func(s *Service) {
		s.resultsToken = token
	}
}

// WithResultsWindowDays sets how many days either side of the target day
// the results API is queried for.
func WithResultsWindowDays(days int) Option {
	return func(s *Service) {
		if days >= 1 {
			s.resultsWindowDays = days
		}
	}
}

// WithResultsTimeout bounds a results API call.
func WithResultsTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.resultsTimeout = d
		}
	}
}

// WithOracleBaseURL overrides the completion API base URL.
func WithOracleBaseURL(u string) Option {
	return func(s *Service) {
		if u != "" {
			s.oracleBaseURL = u
		}
	}
}

// WithOracleAPIKey sets the completion API credential.
func WithOracleAPIKey(key string) Option {
	return func(s *Service) {
		s.oracleAPIKey = key
	}
}

// WithOracleModel selects the model asked for picks.
func WithOracleModel(m string) Option {
	return func(s *Service) {
		if m != "" {
			s.oracleModel = m
		}
	}
}

// WithOracleMaxTokens caps the completion response size.
func WithOracleMaxTokens(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.oracleMaxTokens = n
		}
	}
}

// WithOraclePicks sets how many predictions the oracle must return.
func WithOraclePicks(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.oraclePicks = n
		}
	}
}

// WithResultsFetcher swaps the results client, mainly for tests.
func WithResultsFetcher(f ResultsFetcher) Option {
	return func(s *Service) {
		if f != nil {
			s.results = f
		}
	}
}

// WithSources swaps the prediction sources, mainly for tests.
func WithSources(srcs []sources.Source) Option {
	return func(s *Service) {
		if len(srcs) > 0 {
			s.srcs = srcs
		}
	}
}
