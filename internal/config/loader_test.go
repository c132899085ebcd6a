package config_test

import (
	"context"
	"os"
	"testing"

	"github.com/pitchside/tally/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			// Clear any existing environment variables
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.DataDir, convey.ShouldEqual, "./data")
				convey.So(cfg.FuzzyThreshold, convey.ShouldEqual, 80)
				convey.So(cfg.StepTimeoutSeconds, convey.ShouldEqual, 120)
				convey.So(cfg.ScrapeConcurrency, convey.ShouldEqual, 4)
				convey.So(cfg.ResultsWindowDays, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			// Set environment variables
			_ = os.Setenv("TALLY_ADDR", ":8080")
			_ = os.Setenv("TALLY_DATA_DIR", "/var/lib/tally")
			_ = os.Setenv("TALLY_FUZZY_THRESHOLD", "85")
			_ = os.Setenv("TALLY_SCRAPE_CONCURRENCY", "8")
			_ = os.Setenv("TALLY_RESULTS_API_TOKEN", "secret-token")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.DataDir, convey.ShouldEqual, "/var/lib/tally")
				convey.So(cfg.FuzzyThreshold, convey.ShouldEqual, 85)
				convey.So(cfg.ScrapeConcurrency, convey.ShouldEqual, 8)
				convey.So(cfg.ResultsAPIToken, convey.ShouldEqual, "secret-token")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			// Create a temporary YAML config file
			yamlContent := `
addr: ":9090"
data_dir: "/tmp/tally-data"
fuzzy_threshold: 75
step_timeout_seconds: 60
sources:
  - forebet
  - oracle
suffix_tokens:
  - fc
  - cf
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			// Set the config file path
			_ = os.Setenv("TALLY_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.DataDir, convey.ShouldEqual, "/tmp/tally-data")
				convey.So(cfg.FuzzyThreshold, convey.ShouldEqual, 75)
				convey.So(cfg.StepTimeoutSeconds, convey.ShouldEqual, 60)
				convey.So(cfg.Sources, convey.ShouldResemble, []string{"forebet", "oracle"})
				convey.So(cfg.SuffixTokens, convey.ShouldResemble, []string{"fc", "cf"})
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			// Create a YAML config file
			yamlContent := `
addr: ":9090"
data_dir: "/tmp/tally-data"
fuzzy_threshold: 75
scrape_concurrency: 2
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			// Set both file and environment variables
			_ = os.Setenv("TALLY_CONFIG", tmpFile)
			_ = os.Setenv("TALLY_ADDR", ":8080")            // This should override the file
			_ = os.Setenv("TALLY_SCRAPE_CONCURRENCY", "16") // This should override the file
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")              // Overridden by env
				convey.So(cfg.DataDir, convey.ShouldEqual, "/tmp/tally-data") // From file
				convey.So(cfg.FuzzyThreshold, convey.ShouldEqual, 75)         // From file
				convey.So(cfg.ScrapeConcurrency, convey.ShouldEqual, 16)      // Overridden by env
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			// Create an invalid YAML file
			invalidYaml := `invalid: yaml: content: [`
			tmpFile := createTempConfigFile(invalidYaml)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("TALLY_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("TALLY_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("TALLY_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with out-of-range fuzzy threshold", func() {
			_ = os.Setenv("TALLY_FUZZY_THRESHOLD", "140")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "fuzzy_threshold")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with partial YAML file", func() {
			// Create a YAML file with only some fields
			yamlContent := `
addr: ":9090"
scrape_timeout_seconds: 10
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("TALLY_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should merge with defaults for missing fields", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")            // From file
				convey.So(cfg.ScrapeTimeoutSeconds, convey.ShouldEqual, 10) // From file
				convey.So(cfg.DataDir, convey.ShouldEqual, "./data")        // From defaults
				convey.So(cfg.FuzzyThreshold, convey.ShouldEqual, 80)       // From defaults
				convey.So(cfg.StepTimeoutSeconds, convey.ShouldEqual, 120)  // From defaults
				convey.So(cfg.OraclePicks, convey.ShouldEqual, 5)           // From defaults
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("TALLY_SCRAPE_CONCURRENCY", "invalid")
			_ = os.Setenv("TALLY_STEP_TIMEOUT_SECONDS", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestConfigLoaderEdgeCases(t *testing.T) {
	convey.Convey("Given config loader edge cases", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with boundary fuzzy thresholds", func() {
			_ = os.Setenv("TALLY_FUZZY_THRESHOLD", "0")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then zero should be accepted", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.FuzzyThreshold, convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When loading config with special characters in addr", func() {
			_ = os.Setenv("TALLY_ADDR", "localhost:8080")
			_ = os.Setenv("TALLY_ADDR", "0.0.0.0:9090")
			_ = os.Setenv("TALLY_ADDR", "[::1]:8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should handle various addr formats", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, "[::1]:8080") // Last one wins
			})
		})

		convey.Convey("When loading config with YAML file containing comments", func() {
			yamlContent := `
# This is a comment
addr: ":9090"  # Inline comment
data_dir: "/tmp/tally"
# Another comment
results_window_days: 2
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("TALLY_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should parse YAML with comments", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.DataDir, convey.ShouldEqual, "/tmp/tally")
				convey.So(cfg.ResultsWindowDays, convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When loading config with empty sources list in YAML", func() {
			yamlContent := `
addr: ":9090"
sources: []
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("TALLY_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "sources")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"TALLY_CONFIG",
		"TALLY_ADDR",
		"TALLY_DATA_DIR",
		"TALLY_FUZZY_THRESHOLD",
		"TALLY_SCRAPE_CONCURRENCY",
		"TALLY_SCRAPE_TIMEOUT_SECONDS",
		"TALLY_STEP_TIMEOUT_SECONDS",
		"TALLY_RESULTS_API_TOKEN",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "tally-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
