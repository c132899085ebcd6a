package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pitchside/tally/internal/domain/model"
	"github.com/pitchside/tally/internal/domain/types"
	"github.com/pitchside/tally/pkg/logger"
	"github.com/robfig/cron/v3"
)

// scheduledRunTimeout bounds a cron-triggered run. Generous, since the
// morning run waits on several remote sites.
const scheduledRunTimeout = 15 * time.Minute

// Runner is the subset of the service the scheduler drives.
type Runner interface {
	RunMorning(ctx context.Context, date string) (types.RunReport, error)
	RunEvening(ctx context.Context, date string) (types.RunReport, error)
}

// Scheduler fires the morning and evening runs on cron expressions, each
// for the day it fires on.
type Scheduler struct {
	mu      sync.Mutex
	cron    *cron.Cron
	runner  Runner
	morning string
	evening string
	running bool
	now     func() time.Time
	logger  logger.Logger
}

// NewScheduler wires a runner to the two cron expressions. Specs use the
// standard five-field form, minute granularity.
func NewScheduler(r Runner, morning, evening string) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(),
		runner:  r,
		morning: morning,
		evening: evening,
		now:     time.Now,
		logger:  logger.Get().Named("schedule"),
	}

	if _, err := s.cron.AddFunc(morning, s.fireMorning); err != nil {
		return nil, fmt.Errorf("%w: morning %q: %v", ErrBadSchedule, morning, err)
	}
	if _, err := s.cron.AddFunc(evening, s.fireEvening); err != nil {
		return nil, fmt.Errorf("%w: evening %q: %v", ErrBadSchedule, evening, err)
	}

	return s, nil
}

// Start begins firing jobs.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	s.cron.Start()
	s.running = true
	s.logger.Info(context.Background(), "schedule started",
		logger.String("morning", s.morning),
		logger.String("evening", s.evening),
	)
}

// Stop halts the schedule and waits for a run already in flight.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running = false
	s.logger.Info(context.Background(), "schedule stopped")
}

func (s *Scheduler) fireMorning() { s.fire(modeMorning, s.runner.RunMorning) }
func (s *Scheduler) fireEvening() { s.fire(modeEvening, s.runner.RunEvening) }

func (s *Scheduler) fire(mode string, run func(context.Context, string) (types.RunReport, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), scheduledRunTimeout)
	defer cancel()

	date := s.now().Format(model.DateFormat)
	report, err := run(ctx, date)
	if err != nil {
		s.logger.Error(ctx, "scheduled run refused",
			logger.String("mode", mode),
			logger.String("date", date),
			logger.Error(err),
		)
		return
	}

	s.logger.Info(ctx, "scheduled run finished",
		logger.String("mode", mode),
		logger.String("date", date),
		logger.String("status", report.Status),
	)
}
