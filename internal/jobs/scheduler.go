package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Schedules uses six-field cron expressions (seconds first).
type Schedules struct {
	NoShow       string
	StalePayment string
}

type Scheduler struct {
	cron    *cron.Cron
	sweeper *Sweeper
	timeout time.Duration
	log     logrus.FieldLogger
}

func NewScheduler(sweeper *Sweeper, log logrus.FieldLogger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		sweeper: sweeper,
		timeout: 5 * time.Minute,
		log:     log,
	}
}

// Start registers the sweeps and starts the scheduler. An empty expression
// disables that sweep.
func (s *Scheduler) Start(sched Schedules) error {
	if err := s.add("no_show", sched.NoShow, s.sweeper.SweepNoShows); err != nil {
		return err
	}
	if err := s.add("stale_payment", sched.StalePayment, s.sweeper.SweepStalePayments); err != nil {
		return err
	}
	s.cron.Start()
	s.log.WithField("jobs", len(s.cron.Entries())).Info("cron scheduler started")
	return nil
}

func (s *Scheduler) add(name, spec string, fn func(context.Context) (int, error)) error {
	if spec == "" {
		s.log.WithField("job", name).Info("cron job disabled")
		return nil
	}
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		// errors are logged by the sweeper
		_, _ = fn(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule %s job %q: %w", name, spec, err)
	}
	return nil
}

// Stop stops scheduling and waits for running jobs or ctx, whichever ends first.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info("cron scheduler stopped")
	case <-ctx.Done():
		s.log.Warn("cron scheduler stop timed out")
	}
}
