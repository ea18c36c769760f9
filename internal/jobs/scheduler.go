// Package jobs runs devlog's background schedule.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// SweepSpec runs the streak sweep five minutes after midnight.
const SweepSpec = "5 0 * * *"

// Sweeper recomputes every user's streak.
type Sweeper interface {
	SweepStreaks(ctx context.Context) (int, error)
}

// Scheduler runs the nightly streak sweep in the reference zone.
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	log     logrus.FieldLogger
}

// NewScheduler creates a scheduler whose specs are read in loc.
func NewScheduler(sweeper Sweeper, loc *time.Location, log logrus.FieldLogger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		sweeper: sweeper,
		log:     log,
	}
}

// Start registers the sweep and starts the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(SweepSpec, func() { s.Sweep(ctx) }); err != nil {
		return fmt.Errorf("scheduling streak sweep: %w", err)
	}
	s.cron.Start()
	s.log.WithField("spec", SweepSpec).Info("scheduler started")
	return nil
}

// Sweep runs one streak sweep and logs the outcome.
func (s *Scheduler) Sweep(ctx context.Context) {
	n, err := s.sweeper.SweepStreaks(ctx)
	if err != nil {
		s.log.WithError(err).WithField("users", n).Error("streak sweep failed")
		return
	}
	s.log.WithField("users", n).Info("streak sweep done")
}

// Next reports when the sweep runs next, or the zero time before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("scheduler stopped")
}
