// Package oracle generates 1X2 predictions by asking a hosted language
// model for its most confident picks of the day.
//
// The model is prompted for exactly N picks returned as a fenced JSON
// block, which is extracted and validated before anything reaches the
// ledger. A response with the wrong pick count or an outcome outside 1/X/2
// fails the whole fetch; a half-valid oracle is treated as no oracle.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/pitchside/tally/internal/domain/model"
	"github.com/sony/gobreaker"
)

const (
	siteName = "oracle"

	defaultBaseURL   = "https://api.anthropic.com/v1"
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 4096
	defaultPicks     = 5
	defaultTimeout   = 60 * time.Second

	apiVersion    = "2023-06-01"
	retryAttempts = 3
)

const promptTemplate = `Today is %s.

Your task is to generate the %d most confident 1X2 football predictions for today's matches.

Steps:
1. Consider today's football fixtures across the major European leagues and competitions: Premier League, Championship, La Liga, Bundesliga, Serie A, Ligue 1, Champions League, Europa League, Conference League, Eredivisie, Primeira Liga.
2. For each promising fixture, weigh recent form, head-to-head record, home/away performance, injury news and betting odds.
3. Select the %d matches you are MOST confident about, favouring matches with clear favourites and minimal uncertainty.
4. For each selected match, predict: 1 (Home win), X (Draw), or 2 (Away win).

Return your final answer as ONLY a JSON code block (no other text after it) in this exact format:

` + "```json\n" + `[
  {"home_team": "Team A", "away_team": "Team B", "prediction": "1"},
  {"home_team": "Team C", "away_team": "Team D", "prediction": "X"},
  {"home_team": "Team E", "away_team": "Team F", "prediction": "2"}
]
` + "```" + `

Rules:
- Use the teams' common English names (e.g. "Real Madrid", "PSG", "Man City")
- prediction must be exactly "1", "X", or "2"
- Return exactly %d predictions
- Do NOT include any text after the closing fence of the JSON block`

var jsonBlock = regexp.MustCompile("(?s)```json\\s*(.+?)\\s*```") //nolint:gochecknoglobals // compiled once

// Client asks the completion API for the day's picks.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	maxTokens  int
	picks      int
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	now        func() time.Time
	backoff    func(attempt int)
}

// New creates an oracle client with configuration options.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		maxTokens:  defaultMaxTokens,
		picks:      defaultPicks,
		httpClient: &http.Client{Timeout: defaultTimeout},
		now:        time.Now,
		backoff: func(attempt int) {
			time.Sleep(time.Duration(1<<uint(attempt)) * time.Second)
		},
	}

	// Apply all options
	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "oracle-api",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
	})

	return c
}

// Name returns the source identifier.
func (c *Client) Name() string { return siteName }

// Wire shapes of the messages endpoint.
type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// rawPick is one entry of the model's JSON block.
type rawPick struct {
	HomeTeam   string `json:"home_team"`
	AwayTeam   string `json:"away_team"`
	Prediction string `json:"prediction"`
}

// Fetch asks for today's picks and validates the response.
func (c *Client) Fetch(ctx context.Context) ([]model.Prediction, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	prompt := fmt.Sprintf(promptTemplate, c.now().Format(model.DateFormat), c.picks, c.picks, c.picks)

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.complete(ctx, prompt)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompletion, err)
	}

	return c.parsePicks(out.(string))
}

// complete sends the prompt and returns the response text, retrying
// transient failures with exponential backoff.
func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(messageRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		if attempt > 0 {
			c.backoff(attempt)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", c.apiKey)
		req.Header.Set("anthropic-version", apiVersion)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		text, retryable, err := readResponse(resp)
		if err == nil {
			return text, nil
		}
		if !retryable {
			return "", err
		}
		lastErr = err
	}

	return "", fmt.Errorf("failed after %d attempts: %w", retryAttempts, lastErr)
}

// readResponse consumes one HTTP response. Auth and request errors are
// permanent; rate limits and server errors are worth retrying.
func readResponse(resp *http.Response) (string, bool, error) {
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		var payload messageResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return "", false, fmt.Errorf("decode response: %w", err)
		}
		var text string
		for _, block := range payload.Content {
			if block.Type == "text" {
				text += block.Text
			}
		}
		return text, false, nil
	}

	var apiErr apiError
	_ = json.NewDecoder(resp.Body).Decode(&apiErr)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return "", false, fmt.Errorf("invalid API credentials: %s", apiErr.Message)
	case http.StatusBadRequest:
		return "", false, fmt.Errorf("bad request: %s", apiErr.Message)
	default:
		return "", true, fmt.Errorf("status %d: %s", resp.StatusCode, apiErr.Message)
	}
}

// parsePicks extracts and validates the fenced JSON block.
func (c *Client) parsePicks(text string) ([]model.Prediction, error) {
	groups := jsonBlock.FindStringSubmatch(text)
	if groups == nil {
		return nil, ErrNoJSONBlock
	}

	var raw []rawPick
	if err := json.Unmarshal([]byte(groups[1]), &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadPredictions, err)
	}
	if len(raw) != c.picks {
		return nil, fmt.Errorf("%w: expected %d picks, got %d", ErrBadPredictions, c.picks, len(raw))
	}

	preds := make([]model.Prediction, 0, len(raw))
	for i, p := range raw {
		if p.HomeTeam == "" || p.AwayTeam == "" {
			return nil, fmt.Errorf("%w: pick %d is missing a team", ErrBadPredictions, i)
		}
		call, ok := model.ParseOutcome(p.Prediction)
		if !ok {
			return nil, fmt.Errorf("%w: pick %d has outcome %q", ErrBadPredictions, i, p.Prediction)
		}
		preds = append(preds, model.Prediction{
			Source:   siteName,
			HomeTeam: p.HomeTeam,
			AwayTeam: p.AwayTeam,
			Call:     call,
		})
	}
	return preds, nil
}
