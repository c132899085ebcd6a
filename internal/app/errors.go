package service

import "errors"

var (
	// ErrNotStarted is returned when a run or query arrives before Start.
	ErrNotStarted = errors.New("service not started")

	// ErrBadSchedule is returned when a cron expression cannot be parsed.
	ErrBadSchedule = errors.New("bad schedule expression")
)
