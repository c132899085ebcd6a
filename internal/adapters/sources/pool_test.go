package sources

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pitchside/tally/internal/domain/model"
	"github.com/pitchside/tally/pkg/logger"
)

func init() {
	// NewPool attaches a named logger, so the global one must exist.
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// stubSource is a Source backed by a canned response or error.
type stubSource struct {
	name  string
	preds []model.Prediction
	err   error
	delay time.Duration
	fetch func(ctx context.Context) ([]model.Prediction, error)
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(ctx context.Context) ([]model.Prediction, error) {
	if s.fetch != nil {
		return s.fetch(ctx)
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.preds, s.err
}

func pick(source, home string) model.Prediction {
	return model.Prediction{Source: source, HomeTeam: home, AwayTeam: "Opponent", Call: model.OutcomeHome}
}

func TestPool_FetchAllPreservesOrder(t *testing.T) {
	ctx := context.Background()
	pool := NewPool()

	// The slowest source comes first so completion order differs from
	// input order.
	srcs := []Source{
		&stubSource{name: "forebet", preds: []model.Prediction{pick("forebet", "Arsenal")}, delay: 30 * time.Millisecond},
		&stubSource{name: "predictz", preds: []model.Prediction{pick("predictz", "Everton")}},
		&stubSource{name: "vitibet", preds: []model.Prediction{pick("vitibet", "Leeds")}},
	}

	results := pool.FetchAll(ctx, srcs)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, want := range []string{"forebet", "predictz", "vitibet"} {
		if results[i].Name != want {
			t.Errorf("result %d: expected %q, got %q", i, want, results[i].Name)
		}
	}
	if len(results[0].Predictions) != 1 || results[0].Predictions[0].HomeTeam != "Arsenal" {
		t.Errorf("unexpected predictions for first source: %+v", results[0].Predictions)
	}
}

func TestPool_FetchAllIsolatesFailures(t *testing.T) {
	ctx := context.Background()
	pool := NewPool()

	bad := errors.New("site unreachable")
	srcs := []Source{
		&stubSource{name: "forebet", err: bad},
		&stubSource{name: "predictz", preds: []model.Prediction{pick("predictz", "Everton")}},
	}

	results := pool.FetchAll(ctx, srcs)
	if !errors.Is(results[0].Err, bad) {
		t.Errorf("expected first source error to surface, got %v", results[0].Err)
	}
	if results[1].Err != nil {
		t.Errorf("healthy source must not inherit a neighbour's failure, got %v", results[1].Err)
	}
	if len(results[1].Predictions) != 1 {
		t.Errorf("expected healthy source predictions, got %+v", results[1].Predictions)
	}
}

func TestPool_FetchAllBoundsConcurrency(t *testing.T) {
	ctx := context.Background()
	pool := NewPool(WithWorkers(2))

	var current, peak atomic.Int64
	observe := func(ctx context.Context) ([]model.Prediction, error) {
		cur := current.Add(1)
		for {
			max := peak.Load()
			if cur <= max || peak.CompareAndSwap(max, cur) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		current.Add(-1)
		return nil, nil
	}

	srcs := make([]Source, 6)
	for i := range srcs {
		srcs[i] = &stubSource{name: "src", fetch: observe}
	}

	pool.FetchAll(ctx, srcs)
	if got := peak.Load(); got > 2 {
		t.Errorf("expected at most 2 concurrent fetches, observed %d", got)
	}
}

func TestPool_FetchAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pool := NewPool(WithWorkers(1))
	srcs := []Source{
		&stubSource{name: "forebet", delay: time.Second},
		&stubSource{name: "predictz", delay: time.Second},
	}

	start := time.Now()
	results := pool.FetchAll(ctx, srcs)
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("cancelled run should return promptly, took %v", elapsed)
	}
	for i, r := range results {
		if r.Err == nil {
			t.Errorf("result %d: expected an error under a cancelled context", i)
		}
	}
}

func TestPool_FetchAllEmpty(t *testing.T) {
	pool := NewPool()
	results := pool.FetchAll(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("expected no results for no sources, got %d", len(results))
	}
}
