// Package results fetches official full-time results from the
// football-data.org v4 API.
//
// The free tier covers the major European competitions. Responses are
// filtered client side: the API is queried with a window around the target
// day because same-day dateFrom/dateTo queries are unreliable, then only
// matches whose UTC date falls on the target day and whose status is
// FINISHED are kept.
package results

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pitchside/tally/internal/domain/model"
	"github.com/pitchside/tally/pkg/metrics"
	"github.com/sony/gobreaker"
)

const (
	matchesPath    = "/matches"
	statusFinished = "FINISHED"

	// errorBodyLimit bounds how much of an error response lands in the
	// returned error.
	errorBodyLimit = 300
)

// Winner values on the wire.
const (
	winnerHome = "HOME_TEAM"
	winnerDraw = "DRAW"
	winnerAway = "AWAY_TEAM"
)

// Client queries the results API with a circuit breaker in front of it.
type Client struct {
	baseURL    string
	token      string
	windowDays int
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// New creates a results client with configuration options.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    "https://api.football-data.org/v4",
		windowDays: 1,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}

	// Apply all options
	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "football-data",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
	})

	return c
}

// Wire shapes of the v4 matches endpoint.
type matchesResponse struct {
	Matches []apiMatch `json:"matches"`
}

type apiMatch struct {
	UTCDate     string         `json:"utcDate"`
	Status      string         `json:"status"`
	HomeTeam    apiTeam        `json:"homeTeam"`
	AwayTeam    apiTeam        `json:"awayTeam"`
	Score       apiScore       `json:"score"`
	Competition apiCompetition `json:"competition"`
}

type apiTeam struct {
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
}

type apiScore struct {
	Winner   string      `json:"winner"`
	FullTime apiFullTime `json:"fullTime"`
}

type apiFullTime struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

type apiCompetition struct {
	Name string `json:"name"`
}

// FetchFinished returns the finished matches played on the given day,
// mapped to domain results. An empty slice means no finished matches, not
// an error.
func (c *Client) FetchFinished(ctx context.Context, date string) ([]model.MatchResult, error) {
	start := time.Now()
	defer func() {
		metrics.RecordResultsFetchDuration(float64(time.Since(start).Milliseconds()))
	}()

	if c.token == "" {
		metrics.RecordErrorByComponent("results", "missing_token")
		return nil, ErrMissingToken
	}
	day, err := time.Parse(model.DateFormat, date)
	if err != nil {
		metrics.RecordErrorByComponent("results", "invalid_date")
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetch(ctx, day)
	})
	if err != nil {
		metrics.RecordResultsFetchError()
		return nil, err
	}

	matches := filterDay(out.(*matchesResponse).Matches, date)
	metrics.RecordResultsFetched(len(matches))
	return matches, nil
}

func (c *Client) fetch(ctx context.Context, day time.Time) (*matchesResponse, error) {
	params := url.Values{}
	params.Set("dateFrom", day.AddDate(0, 0, -c.windowDays).Format(model.DateFormat))
	params.Set("dateTo", day.AddDate(0, 0, c.windowDays).Format(model.DateFormat))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+matchesPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchResults, err)
	}
	req.Header.Set("X-Auth-Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchResults, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: %s", ErrRateLimited, errorBody(resp.Body))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrFetchResults, resp.StatusCode, errorBody(resp.Body))
	}

	var payload matchesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrFetchResults, err)
	}
	return &payload, nil
}

// filterDay keeps finished matches played on the target day and maps them
// to domain results.
func filterDay(matches []apiMatch, date string) []model.MatchResult {
	out := make([]model.MatchResult, 0, len(matches))
	for _, m := range matches {
		if !strings.HasPrefix(m.UTCDate, date) || m.Status != statusFinished {
			continue
		}

		var winner model.Outcome
		switch m.Score.Winner {
		case winnerHome:
			winner = model.OutcomeHome
		case winnerDraw:
			winner = model.OutcomeDraw
		case winnerAway:
			winner = model.OutcomeAway
		}

		shortHome := m.HomeTeam.ShortName
		if shortHome == "" {
			shortHome = m.HomeTeam.Name
		}
		shortAway := m.AwayTeam.ShortName
		if shortAway == "" {
			shortAway = m.AwayTeam.Name
		}

		out = append(out, model.MatchResult{
			HomeTeam:    m.HomeTeam.Name,
			AwayTeam:    m.AwayTeam.Name,
			ShortHome:   shortHome,
			ShortAway:   shortAway,
			Winner:      winner,
			HomeScore:   m.Score.FullTime.Home,
			AwayScore:   m.Score.FullTime.Away,
			Competition: m.Competition.Name,
		})
	}
	return out
}

// errorBody reads a bounded snippet of an error response.
func errorBody(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, errorBodyLimit))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}
