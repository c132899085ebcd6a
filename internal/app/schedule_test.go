package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pitchside/tally/internal/domain/types"
	"github.com/pitchside/tally/pkg/logger"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// stubRunner records the last run it was asked for.
type stubRunner struct {
	mode string
	date string
	err  error
}

func (r *stubRunner) RunMorning(ctx context.Context, date string) (types.RunReport, error) {
	r.mode, r.date = modeMorning, date
	return types.RunReport{Mode: modeMorning, Date: date, Status: types.RunStatusOK}, r.err
}

func (r *stubRunner) RunEvening(ctx context.Context, date string) (types.RunReport, error) {
	r.mode, r.date = modeEvening, date
	return types.RunReport{Mode: modeEvening, Date: date, Status: types.RunStatusOK}, r.err
}

func TestNewSchedulerRejectsBadSpecs(t *testing.T) {
	if _, err := NewScheduler(&stubRunner{}, "not a cron spec", "0 22 * * *"); !errors.Is(err, ErrBadSchedule) {
		t.Errorf("expected ErrBadSchedule for morning spec, got %v", err)
	}
	if _, err := NewScheduler(&stubRunner{}, "0 9 * * *", "soon"); !errors.Is(err, ErrBadSchedule) {
		t.Errorf("expected ErrBadSchedule for evening spec, got %v", err)
	}
}

func TestSchedulerFiresForTheCurrentDay(t *testing.T) {
	runner := &stubRunner{}
	sched, err := NewScheduler(runner, "0 9 * * *", "0 22 * * *")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sched.now = func() time.Time {
		return time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)
	}

	sched.fireMorning()
	if runner.mode != modeMorning || runner.date != "2026-08-24" {
		t.Errorf("expected morning run for 2026-08-24, got %s %s", runner.mode, runner.date)
	}

	sched.fireEvening()
	if runner.mode != modeEvening || runner.date != "2026-08-24" {
		t.Errorf("expected evening run for 2026-08-24, got %s %s", runner.mode, runner.date)
	}
}

func TestSchedulerRefusedRunDoesNotPanic(t *testing.T) {
	runner := &stubRunner{err: errors.New("run already in flight")}
	sched, err := NewScheduler(runner, "0 9 * * *", "0 22 * * *")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sched.now = func() time.Time {
		return time.Date(2026, 8, 24, 22, 0, 0, 0, time.UTC)
	}

	// A refused run is logged, never escalated.
	sched.fireEvening()
	if runner.date != "2026-08-24" {
		t.Errorf("expected the runner to be invoked, got date %q", runner.date)
	}
}

func TestSchedulerStartStop(t *testing.T) {
	sched, err := NewScheduler(&stubRunner{}, "0 9 * * *", "0 22 * * *")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sched.Start()
	sched.Start() // second call is a no-op
	sched.Stop()
	sched.Stop() // stopping twice is safe
}
