package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pitchside/tally/internal/domain/model"
	"github.com/sony/gobreaker"
)

func fixedNow() time.Time {
	return time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
}

const validBlock = "Here are my picks for today.\n\n```json\n" + `[
  {"home_team": "Arsenal", "away_team": "Chelsea", "prediction": "1"},
  {"home_team": "Real Madrid", "away_team": "Sevilla", "prediction": "1"},
  {"home_team": "Ajax", "away_team": "PSV", "prediction": "X"},
  {"home_team": "Porto", "away_team": "Benfica", "prediction": "2"},
  {"home_team": "Bayern", "away_team": "Dortmund", "prediction": "1"}
]` + "\n```"

func textResponse(text string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"content": []map[string]string{{"type": "text", "text": text}},
	})
	return string(body)
}

func newTestClient(url string, opts ...Option) *Client {
	c := New(append([]Option{WithBaseURL(url), WithAPIKey("test-key")}, opts...)...)
	c.backoff = func(int) {}
	return c
}

func TestFetchParsesPicks(t *testing.T) {
	var gotPath, gotKey, gotVersion string
	var gotReq messageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_, _ = w.Write([]byte(textResponse(validBlock)))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, WithNow(fixedNow), WithModel("test-model"), WithMaxTokens(1024))

	preds, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/messages" {
		t.Errorf("unexpected path: %q", gotPath)
	}
	if gotKey != "test-key" || gotVersion != "2023-06-01" {
		t.Errorf("unexpected auth headers: key=%q version=%q", gotKey, gotVersion)
	}
	if gotReq.Model != "test-model" || gotReq.MaxTokens != 1024 {
		t.Errorf("unexpected request: %+v", gotReq)
	}
	if len(gotReq.Messages) != 1 || gotReq.Messages[0].Role != "user" {
		t.Fatalf("unexpected messages: %+v", gotReq.Messages)
	}
	prompt := gotReq.Messages[0].Content
	if !strings.Contains(prompt, "Today is 2026-08-25.") {
		t.Errorf("prompt missing the date: %q", prompt)
	}
	if !strings.Contains(prompt, "Return exactly 5 predictions") {
		t.Errorf("prompt missing the pick count: %q", prompt)
	}

	if len(preds) != 5 {
		t.Fatalf("expected 5 predictions, got %d", len(preds))
	}
	want := model.Prediction{Source: "oracle", HomeTeam: "Arsenal", AwayTeam: "Chelsea", Call: model.OutcomeHome}
	if preds[0] != want {
		t.Errorf("expected first pick %+v, got %+v", want, preds[0])
	}
	if preds[2].Call != model.OutcomeDraw || preds[3].Call != model.OutcomeAway {
		t.Errorf("unexpected outcomes: %+v", preds)
	}
}

func TestFetchRequiresAPIKey(t *testing.T) {
	client := New(WithBaseURL("http://localhost:0"))
	_, err := client.Fetch(context.Background())
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestFetchRejectsBadBlocks(t *testing.T) {
	cases := []struct {
		name string
		text string
		want error
	}{
		{
			name: "no json block",
			text: "I could not find any fixtures today.",
			want: ErrNoJSONBlock,
		},
		{
			name: "wrong pick count",
			text: "```json\n" + `[{"home_team": "A", "away_team": "B", "prediction": "1"}]` + "\n```",
			want: ErrBadPredictions,
		},
		{
			name: "invalid outcome",
			text: "```json\n" + `[
  {"home_team": "A", "away_team": "B", "prediction": "1"},
  {"home_team": "C", "away_team": "D", "prediction": "W"},
  {"home_team": "E", "away_team": "F", "prediction": "2"},
  {"home_team": "G", "away_team": "H", "prediction": "1"},
  {"home_team": "I", "away_team": "J", "prediction": "X"}
]` + "\n```",
			want: ErrBadPredictions,
		},
		{
			name: "missing team",
			text: "```json\n" + `[
  {"home_team": "A", "away_team": "B", "prediction": "1"},
  {"away_team": "D", "prediction": "1"},
  {"home_team": "E", "away_team": "F", "prediction": "2"},
  {"home_team": "G", "away_team": "H", "prediction": "1"},
  {"home_team": "I", "away_team": "J", "prediction": "X"}
]` + "\n```",
			want: ErrBadPredictions,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(textResponse(c.text)))
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL).Fetch(context.Background())
			if !errors.Is(err, c.want) {
				t.Errorf("expected %v, got %v", c.want, err)
			}
		})
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(textResponse(validBlock)))
	}))
	defer srv.Close()

	preds, err := newTestClient(srv.URL).Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(preds) != 5 {
		t.Errorf("expected 5 predictions after retries, got %d", len(preds))
	}
	if hits.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", hits.Load())
	}
}

func TestFetchDoesNotRetryAuthErrors(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type": "authentication_error", "message": "invalid x-api-key"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Fetch(context.Background())
	if !errors.Is(err, ErrCompletion) {
		t.Errorf("expected ErrCompletion, got %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("auth failures must not retry, got %d attempts", hits.Load())
	}
}

func TestFetchBreakerOpens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	var lastErr error
	for i := 0; i < 5; i++ {
		_, lastErr = client.Fetch(context.Background())
	}
	if !errors.Is(lastErr, gobreaker.ErrOpenState) {
		t.Errorf("expected the breaker to open, got %v", lastErr)
	}
}

func TestFetchConfigurablePicks(t *testing.T) {
	block := "```json\n" + `[
  {"home_team": "A", "away_team": "B", "prediction": "1"},
  {"home_team": "C", "away_team": "D", "prediction": "2"},
  {"home_team": "E", "away_team": "F", "prediction": "X"}
]` + "\n```"

	var prompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req messageRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		prompt = req.Messages[0].Content
		_, _ = w.Write([]byte(textResponse(block)))
	}))
	defer srv.Close()

	preds, err := newTestClient(srv.URL, WithPicks(3)).Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(preds) != 3 {
		t.Errorf("expected 3 predictions, got %d", len(preds))
	}
	if !strings.Contains(prompt, fmt.Sprintf("Return exactly %d predictions", 3)) {
		t.Errorf("prompt missing adjusted pick count: %q", prompt)
	}
}
