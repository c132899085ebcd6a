package testrun

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/pitchside/tally/internal/adapters/snapshot"
	"github.com/pitchside/tally/internal/domain/types"
)

// HTTPClient wraps http.Client with a timeout and optional bearer auth
type HTTPClient struct {
	client *http.Client
	token  string
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration, token string) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		token: token,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request. The run triggers carry their arguments in
// the URL, so there is no body to send.
func (c *HTTPClient) Post(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// decodeResponse reads, closes and JSON-decodes the response body into v.
func decodeResponse(resp *http.Response, v any) error {
	body, err := readResponseBody(resp)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// checkServiceHealth verifies the service answers on /healthz.
func checkServiceHealth(ctx context.Context, client *HTTPClient, config *Config) error {
	log.Printf("🔍 Checking service health at %s...", config.BaseURL)

	resp, err := client.Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return fmt.Errorf("failed to read health response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status %d: %s", resp.StatusCode, string(body))
	}

	log.Printf("✅ Service is healthy")
	return nil
}

// triggerEveningRun asks the service to reconcile the day's predictions
// against results and rebuild the leaderboard, then reports step outcomes.
func triggerEveningRun(ctx context.Context, client *HTTPClient, config *Config) (types.RunReport, error) {
	log.Printf("🌙 Triggering evening run for %s...", config.Date)

	var report types.RunReport
	resp, err := client.Post(ctx, config.BaseURL+"/run/evening?date="+config.Date)
	if err != nil {
		return report, fmt.Errorf("evening run request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := readResponseBody(resp)
		return report, fmt.Errorf("evening run refused with status %d: %s", resp.StatusCode, string(body))
	}
	if err := decodeResponse(resp, &report); err != nil {
		return report, err
	}

	for _, step := range report.Steps {
		if step.OK {
			log.Printf("   ✅ %s (%dms)", step.Name, step.DurationMS)
		} else {
			log.Printf("   ⚠️ %s: %s", step.Name, step.Error)
		}
	}
	log.Printf("🌙 Evening run %s finished with status %q", report.RunID, report.Status)

	return report, nil
}

// fetchScores retrieves the day's scores snapshot.
func fetchScores(ctx context.Context, client *HTTPClient, config *Config) (snapshot.ScoresDoc, error) {
	log.Printf("📊 Fetching scores for %s...", config.Date)

	var doc snapshot.ScoresDoc
	resp, err := client.Get(ctx, config.BaseURL+"/scores/"+config.Date)
	if err != nil {
		return doc, fmt.Errorf("scores request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := readResponseBody(resp)
		return doc, fmt.Errorf("scores request refused with status %d: %s", resp.StatusCode, string(body))
	}
	if err := decodeResponse(resp, &doc); err != nil {
		return doc, err
	}

	log.Printf("📊 Scores cover %d sources and %d predictions", len(doc.Summary), len(doc.Details))
	return doc, nil
}

// fetchLeaderboard retrieves the rendered leaderboard.
func fetchLeaderboard(ctx context.Context, client *HTTPClient, config *Config) (types.LeaderboardView, error) {
	log.Printf("🏆 Fetching leaderboard...")

	var view types.LeaderboardView
	resp, err := client.Get(ctx, config.BaseURL+"/leaderboard")
	if err != nil {
		return view, fmt.Errorf("leaderboard request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := readResponseBody(resp)
		return view, fmt.Errorf("leaderboard request refused with status %d: %s", resp.StatusCode, string(body))
	}
	if err := decodeResponse(resp, &view); err != nil {
		return view, err
	}

	log.Printf("🏆 Leaderboard has %d ranked sources over %d columns", len(view.Rows), len(view.Header))
	return view, nil
}
