package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"roomspot-sniper/internal/model"
	"roomspot-sniper/internal/services/polling"
)

// Cycler is the part of polling.Service the loop drives.
type Cycler interface {
	LoadSeen(ctx context.Context) (*model.SeenSet, error)
	RunCycle(ctx context.Context, seen *model.SeenSet) polling.CycleResult
}

// Scheduler runs poll cycles back to back. After a completed cycle it waits
// for the next activation of the cron schedule; after an empty or failed one
// it waits the fixed retry interval. There is no backoff growth and no retry
// limit.
type Scheduler struct {
	service       Cycler
	schedule      cron.Schedule
	retryInterval time.Duration
	wake          chan struct{}
	now           func() time.Time
	logger        *slog.Logger
}

// New parses spec with the standard cron parser, so both "*/5 * * * *" and
// "@every 300s" are accepted.
func New(spec string, retryInterval time.Duration, service Cycler, logger *slog.Logger) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse poll schedule %q: %w", spec, err)
	}
	if steady := steadyInterval(schedule, time.Now()); retryInterval >= steady {
		return nil, fmt.Errorf("retry interval %s must be shorter than the poll interval %s", retryInterval, steady)
	}
	return &Scheduler{
		service:       service,
		schedule:      schedule,
		retryInterval: retryInterval,
		wake:          make(chan struct{}, 1),
		now:           time.Now,
		logger:        logger,
	}, nil
}

// Run loads the seen-set once and loops until ctx is cancelled. Cycles never
// overlap. Only a failure to load the seen-set is returned.
func (s *Scheduler) Run(ctx context.Context) error {
	seen, err := s.service.LoadSeen(ctx)
	if err != nil {
		return err
	}

	for {
		result := s.service.RunCycle(ctx, seen)
		if ctx.Err() != nil {
			return nil
		}

		wait := s.nextWait(result)
		s.logger.Info("waiting for next cycle", "outcome", result.Outcome, "wait", wait.String())

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		case <-s.wake:
			timer.Stop()
			s.logger.Info("manual poll triggered")
		}
	}
}

// steadyInterval is the gap between two consecutive activations after from.
func steadyInterval(schedule cron.Schedule, from time.Time) time.Duration {
	next := schedule.Next(from)
	return schedule.Next(next).Sub(next)
}

func (s *Scheduler) nextWait(result polling.CycleResult) time.Duration {
	if result.Outcome != polling.OutcomeCompleted {
		return s.retryInterval
	}
	now := s.now()
	wait := s.schedule.Next(now).Sub(now)
	if wait < 0 {
		return 0
	}
	return wait
}

// Trigger wakes a waiting loop. It reports false when a wake-up is already
// pending.
func (s *Scheduler) Trigger() bool {
	select {
	case s.wake <- struct{}{}:
		return true
	default:
		return false
	}
}
