// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New(...Option) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DataDir holds snapshots, the ledger and the rendered leaderboard.
	DataDir string `koanf:"data_dir"`

	// AuthToken guards the run-trigger endpoints. Empty disables auth.
	AuthToken string `koanf:"auth_token"`

	// Sources lists enabled prediction sources in leaderboard order.
	// Complex fields like this are file-only; env overrides cover scalars.
	Sources []string `koanf:"sources"`

	// FuzzyThreshold is the minimum combined similarity (0-100) to accept
	// a prediction/result pairing.
	FuzzyThreshold float64 `koanf:"fuzzy_threshold"`

	// SuffixTokens are organizational suffixes stripped during team-name
	// normalization.
	SuffixTokens []string `koanf:"suffix_tokens"`

	// StepTimeoutSeconds bounds each pipeline step within a run.
	StepTimeoutSeconds int `koanf:"step_timeout_seconds"`

	// ScrapeTimeoutSeconds bounds a single source fetch.
	ScrapeTimeoutSeconds int `koanf:"scrape_timeout_seconds"`

	// ScrapeConcurrency caps parallel source fetches in the morning run.
	ScrapeConcurrency int `koanf:"scrape_concurrency"`

	// ScrapeUserAgent is sent on scraper requests.
	ScrapeUserAgent string `koanf:"scrape_user_agent"`

	// ResultsBaseURL points at the official results API.
	ResultsBaseURL string `koanf:"results_base_url"`

	// ResultsAPIToken authenticates against the results API.
	ResultsAPIToken string `koanf:"results_api_token"`

	// ResultsWindowDays widens the dateFrom/dateTo query window around the
	// run date. Single-day queries are unreliable upstream.
	ResultsWindowDays int `koanf:"results_window_days"`

	// ResultsTimeoutSeconds bounds a results API request.
	ResultsTimeoutSeconds int `koanf:"results_timeout_seconds"`

	// OracleBaseURL points at the hosted completion API for the oracle source.
	OracleBaseURL string `koanf:"oracle_base_url"`

	// OracleAPIKey authenticates the oracle source. Empty disables it.
	OracleAPIKey string `koanf:"oracle_api_key"`

	// OracleModel selects the completion model.
	OracleModel string `koanf:"oracle_model"`

	// OracleMaxTokens caps the completion length.
	OracleMaxTokens int `koanf:"oracle_max_tokens"`

	// OraclePicks is the number of predictions requested from the oracle.
	OraclePicks int `koanf:"oracle_picks"`

	// ScheduleEnabled turns on in-process cron triggers.
	ScheduleEnabled bool `koanf:"schedule_enabled"`

	// ScheduleMorning and ScheduleEvening are cron specs for the two runs.
	ScheduleMorning string `koanf:"schedule_morning"`
	ScheduleEvening string `koanf:"schedule_evening"`
}

// New creates a Config using provided options. Context is accepted first to
// satisfy the project-wide convention; it is reserved for future use (e.g.,
// loading from env/files) and is currently unused.
func New(_ context.Context) *Config {
	c := &Config{
		LogLevel:       "info",
		Addr:           ":9080",
		DataDir:        "./data",
		AuthToken:      "",
		Sources:        []string{"forebet", "predictz", "onemillion", "vitibet", "freesupertips", "oracle"},
		FuzzyThreshold: 80,
		SuffixTokens: []string{
			"fc", "cf", "sc", "ac", "rc", "bv", "sv", "vv", "if", "fk",
			"sk", "uk", "as", "ss", "us", "cd", "sd", "rcd", "ud",
		},
		StepTimeoutSeconds:    120,
		ScrapeTimeoutSeconds:  30,
		ScrapeConcurrency:     4,
		ScrapeUserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		ResultsBaseURL:        "https://api.football-data.org/v4",
		ResultsAPIToken:       "",
		ResultsWindowDays:     1,
		ResultsTimeoutSeconds: 15,
		OracleBaseURL:         "https://api.anthropic.com/v1",
		OracleAPIKey:          "",
		OracleModel:           "claude-sonnet-4-20250514",
		OracleMaxTokens:       4096,
		OraclePicks:           5,
		ScheduleEnabled:       false,
		ScheduleMorning:       "0 9 * * *",
		ScheduleEvening:       "0 22 * * *",
	}
	return c
}
