package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

// JobID identifies a scheduled job for later cancellation.
type JobID = uuid.UUID

// Scheduler is the single mechanism by which time advances device logic.
//
// Devices schedule one-shot jobs ("run once at instant T") and recurring
// jobs ("run every fixed tick") and cancel them when disabled. There is
// no busy polling anywhere in the daemon.
type Scheduler interface {
	// ScheduleAt runs task once at the given instant.
	ScheduleAt(at time.Time, task func()) (JobID, error)

	// ScheduleEvery runs task at a fixed interval until cancelled.
	ScheduleEvery(period time.Duration, task func()) (JobID, error)

	// Cancel removes a pending job. Cancelling a job that already fired
	// or was already cancelled is a no-op, never an error.
	Cancel(id JobID) error
}

// Gocron adapts the gocron scheduler to the Scheduler interface.
type Gocron struct {
	s gocron.Scheduler
}

var _ Scheduler = (*Gocron)(nil)

// New creates a scheduler operating in the given timezone.
// Call Start before scheduling work and Shutdown on exit.
func New(loc *time.Location) (*Gocron, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("creating scheduler: %w", err)
	}
	return &Gocron{s: s}, nil
}

// Start begins executing scheduled jobs.
func (g *Gocron) Start() {
	g.s.Start()
}

// Shutdown stops the scheduler and waits for running jobs to finish.
func (g *Gocron) Shutdown() error {
	if err := g.s.Shutdown(); err != nil {
		return fmt.Errorf("scheduler shutdown: %w", err)
	}
	return nil
}

// ScheduleAt runs task once at the given instant.
func (g *Gocron) ScheduleAt(at time.Time, task func()) (JobID, error) {
	job, err := g.s.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(at)),
		gocron.NewTask(task),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("scheduling one-shot job: %w", err)
	}
	return job.ID(), nil
}

// ScheduleEvery runs task at a fixed interval until cancelled.
func (g *Gocron) ScheduleEvery(period time.Duration, task func()) (JobID, error) {
	job, err := g.s.NewJob(
		gocron.DurationJob(period),
		gocron.NewTask(task),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("scheduling interval job: %w", err)
	}
	return job.ID(), nil
}

// Cancel removes a pending job; unknown handles are ignored.
func (g *Gocron) Cancel(id JobID) error {
	if id == uuid.Nil {
		return nil
	}
	if err := g.s.RemoveJob(id); err != nil {
		if errors.Is(err, gocron.ErrJobNotFound) {
			return nil
		}
		return fmt.Errorf("cancelling job: %w", err)
	}
	return nil
}
