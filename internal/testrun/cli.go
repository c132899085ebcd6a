package testrun

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/pitchside/tally/pkg/logger"
)

// SetupLogging configures logging to both console and file
func SetupLogging(config *Config) (*os.File, error) {
	// Initialize the logger
	if err := logger.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logFileName := config.LogFile
	if logFileName == "" {
		logFileName = fmt.Sprintf("test_run_%s.log", time.Now().Format("20060102_150405"))
	}

	logFile, err := os.Create(logFileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	// Set up multi-writer to write to both console and file
	multiWriter := io.MultiWriter(os.Stdout, logFile)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	log.Printf("📝 Logging to file: %s", logFileName)
	return logFile, nil
}

// ShowHelp displays usage information
func ShowHelp() {
	fmt.Println(`🏟️ Tally Verification Tool (test-run)

Generates a synthetic day of fixtures and predictions whose verdicts
are known up front, runs the matching and scoring engine against it,
and checks the published scores and leaderboard.

Usage: test-run [options]

Options:
  -url string       Base URL of a running service (default: run in-process)
  -date string      Day under test, YYYY-MM-DD (default: today)
  -fixtures int     Synthetic fixtures to generate (default: 8)
  -picks int        Predictions per source, 1-5 (default: 5)
  -token string     Bearer token for run triggers in URL mode
  -timeout duration HTTP request timeout in URL mode (default: 30s)
  -output string    File for the generated day (default: synthetic_day_TIMESTAMP.json)
  -log string       Log file name (default: test_run_TIMESTAMP.log)
  -verbose          Enable verbose logging
  -help             Show this help message

Examples:
  # Verify the engine in-process against a throwaway data directory
  test-run

  # Smaller day on a fixed date
  test-run -fixtures 6 -picks 3 -date 2026-08-24

  # Smoke-test a running service instead
  test-run -url http://localhost:8080 -token secret`)
}
