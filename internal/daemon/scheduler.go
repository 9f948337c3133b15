package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/focusd/internal/logfields"
)

// Scheduler wraps gocron for the periodic reconciliation tick.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(opts ...gocron.SchedulerOption) (*Scheduler, error) {
	s, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s}, nil
}

// Start begins the scheduler.
func (s *Scheduler) Start(_ context.Context) {
	slog.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop shuts the scheduler down and waits for a running tick to finish.
func (s *Scheduler) Stop(_ context.Context) error {
	slog.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}

// ScheduleTick runs tick every interval. A tick that overruns its slot is skipped rather
// than queued, so passes never overlap. With immediate set the first tick runs at once.
func (s *Scheduler) ScheduleTick(interval time.Duration, immediate bool, tick func()) (string, error) {
	opts := []gocron.JobOption{
		gocron.WithName("reconcile-tick"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if immediate {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}
	job, err := s.scheduler.NewJob(gocron.DurationJob(interval), gocron.NewTask(tick), opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create reconcile tick job: %w", err)
	}
	slog.Info("Scheduled reconcile tick", logfields.JobID(job.ID().String()), slog.Duration("interval", interval))
	return job.ID().String(), nil
}

// Reschedule replaces the tick job's interval.
func (s *Scheduler) Reschedule(jobID string, interval time.Duration, tick func()) error {
	for _, j := range s.scheduler.Jobs() {
		if j.ID().String() != jobID {
			continue
		}
		_, err := s.scheduler.Update(j.ID(), gocron.DurationJob(interval), gocron.NewTask(tick),
			gocron.WithName("reconcile-tick"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule))
		if err != nil {
			return fmt.Errorf("failed to reschedule tick: %w", err)
		}
		slog.Info("Rescheduled reconcile tick", logfields.JobID(jobID), slog.Duration("interval", interval))
		return nil
	}
	return fmt.Errorf("tick job %s not found", jobID)
}
