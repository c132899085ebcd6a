package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/pitchside/tally/internal/testrun"
)

func main() {
	if err := run(); err != nil {
		os.Stderr.WriteString("Verification failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	var (
		baseURL    = flag.String("url", "", "Base URL of a running service (default: run in-process)")
		date       = flag.String("date", "", "Day under test, YYYY-MM-DD (default: today)")
		fixtures   = flag.Int("fixtures", testrun.DefaultFixtures, "Number of synthetic fixtures to generate")
		picks      = flag.Int("picks", testrun.DefaultPicks, "Predictions per source")
		token      = flag.String("token", "", "Bearer token for run triggers in URL mode")
		timeout    = flag.Duration("timeout", testrun.DefaultTimeout, "HTTP request timeout")
		outputFile = flag.String("output", "", "Output file for the generated day (default: synthetic_day_TIMESTAMP.json)")
		logFile    = flag.String("log", "", "Log file for test output (default: test_run_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testrun.ShowHelp()
		return nil
	}

	// Create test configuration
	config := &testrun.Config{
		BaseURL:    *baseURL,
		Date:       *date,
		Fixtures:   *fixtures,
		Picks:      *picks,
		Token:      *token,
		Timeout:    *timeout,
		OutputFile: *outputFile,
		LogFile:    *logFile,
		Verbose:    *verbose,
	}

	// Setup logging
	logHandle, err := testrun.SetupLogging(config)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer logHandle.Close()

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), testrun.RunTimeout)
	defer cancel()

	// Run the verification
	return testrun.Run(ctx, config)
}
