// Package jobs runs the periodic housekeeping sweeps over bookings and
// payments.
package jobs

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

type NoShowMarker interface {
	MarkOverdueNoShows(ctx context.Context) (int, error)
}

type StalePaymentFailer interface {
	FailStalePayments(ctx context.Context, olderThan time.Duration) (int, error)
}

// Sweeper moves overdue CONFIRMED bookings to NO_SHOW and fails payments
// stuck in PENDING or PROCESSING.
type Sweeper struct {
	bookings   NoShowMarker
	payments   StalePaymentFailer
	staleAfter time.Duration
	log        logrus.FieldLogger
}

func NewSweeper(bookings NoShowMarker, payments StalePaymentFailer, staleAfter time.Duration, log logrus.FieldLogger) *Sweeper {
	return &Sweeper{bookings: bookings, payments: payments, staleAfter: staleAfter, log: log}
}

func (s *Sweeper) SweepNoShows(ctx context.Context) (int, error) {
	start := time.Now()
	n, err := s.bookings.MarkOverdueNoShows(ctx)
	if err != nil {
		s.log.WithError(err).Error("no-show sweep failed")
		return n, err
	}
	s.log.WithFields(logrus.Fields{"marked": n, "took": time.Since(start).String()}).Info("no-show sweep finished")
	return n, nil
}

func (s *Sweeper) SweepStalePayments(ctx context.Context) (int, error) {
	start := time.Now()
	n, err := s.payments.FailStalePayments(ctx, s.staleAfter)
	if err != nil {
		s.log.WithError(err).Error("stale payment sweep failed")
		return n, err
	}
	s.log.WithFields(logrus.Fields{"failed": n, "took": time.Since(start).String()}).Info("stale payment sweep finished")
	return n, nil
}

// RunOnce runs both sweeps. The second still runs when the first fails.
func (s *Sweeper) RunOnce(ctx context.Context) (noShows, stale int, err error) {
	noShows, nsErr := s.SweepNoShows(ctx)
	stale, spErr := s.SweepStalePayments(ctx)
	if nsErr != nil {
		return noShows, stale, nsErr
	}
	return noShows, stale, spErr
}
