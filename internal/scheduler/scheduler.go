// Package scheduler runs the periodic background jobs of the park: the
// availability sweep that re-derives every zone's Available flag from the
// ledger, and the 24h reservation reminders.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/paintballpark/internal/clock"
	"github.com/Domenick1991/paintballpark/internal/domain"
	"github.com/Domenick1991/paintballpark/internal/ledger"
	"github.com/Domenick1991/paintballpark/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const sweepLeaseName = "availability-sweep"

// Lease is a cluster-wide mutex with expiry, used so only one worker
// sweeps at a time.
type Lease interface {
	AcquireLease(ctx context.Context, name, holder string, ttl time.Duration) (bool, error)
	ReleaseLease(ctx context.Context, name, holder string) error
}

type Reminder interface {
	SendReminders(ctx context.Context, now time.Time, window time.Duration) (int, error)
}

type Config struct {
	SweepInterval    time.Duration
	ReminderInterval time.Duration
	ReminderWindow   time.Duration
	LeaseTTL         time.Duration
}

// Report summarizes one sweep.
type Report struct {
	At        time.Time
	Zones     int
	Changed   int
	Skipped   bool
	Anomalies []domain.ReconciliationAnomaly
}

type Scheduler struct {
	ledger   *ledger.Ledger
	zones    repository.ZoneRepository
	clock    clock.Clock
	lease    Lease
	reminder Reminder
	cfg      Config
	holder   string
	log      logrus.FieldLogger
}

type Option func(*Scheduler)

func WithLease(l Lease) Option {
	return func(s *Scheduler) {
		s.lease = l
	}
}

func WithReminder(r Reminder) Option {
	return func(s *Scheduler) {
		s.reminder = r
	}
}

func New(l *ledger.Ledger, zones repository.ZoneRepository, clk clock.Clock, cfg Config, log logrus.FieldLogger, opts ...Option) *Scheduler {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.LeaseTTL <= 0 {
		cfg.LeaseTTL = cfg.SweepInterval
	}
	s := &Scheduler{
		ledger: l,
		zones:  zones,
		clock:  clk,
		cfg:    cfg,
		holder: uuid.NewString(),
		log:    log.WithField("component", "scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sweep reconciles every zone against the ledger at the current instant.
// Anomalies are logged and reported, never corrected. A zone that fails to
// reconcile does not stop the others; the failures come back joined.
func (s *Scheduler) Sweep(ctx context.Context) (Report, error) {
	now := s.clock.Now()
	report := Report{At: now}

	if s.lease != nil {
		ok, err := s.lease.AcquireLease(ctx, sweepLeaseName, s.holder, s.cfg.LeaseTTL)
		if err != nil {
			return report, err
		}
		if !ok {
			report.Skipped = true
			return report, nil
		}
		defer func() {
			if err := s.lease.ReleaseLease(context.WithoutCancel(ctx), sweepLeaseName, s.holder); err != nil {
				s.log.WithError(err).Warn("sweep lease release failed")
			}
		}()
	}

	zones, err := s.zones.List(ctx)
	if err != nil {
		return report, err
	}
	var errs []error
	for _, z := range zones {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		result, err := s.ledger.Reconcile(ctx, z.ID, now)
		if err != nil {
			s.log.WithError(err).WithField("zone_id", z.ID).Error("zone reconcile failed")
			errs = append(errs, err)
			continue
		}
		report.Zones++
		if result.Changed {
			report.Changed++
		}
		for _, a := range result.Anomalies {
			s.log.WithFields(logrus.Fields{
				"zone_id":             a.ZoneID,
				"reservation_booking": a.ReservationBooking,
				"folio_booking":       a.FolioBooking,
			}).Error(a.Error())
			report.Anomalies = append(report.Anomalies, a)
		}
	}

	s.log.WithFields(logrus.Fields{
		"zones":     report.Zones,
		"changed":   report.Changed,
		"anomalies": len(report.Anomalies),
	}).Debug("availability sweep finished")
	return report, errors.Join(errs...)
}

func (s *Scheduler) remind(ctx context.Context) {
	sent, err := s.reminder.SendReminders(ctx, s.clock.Now(), s.cfg.ReminderWindow)
	if err != nil {
		s.log.WithError(err).Error("reminder run failed")
	}
	if sent > 0 {
		s.log.WithField("sent", sent).Info("reminders sent")
	}
}

// Run sweeps once immediately and then on every tick until ctx ends.
func (s *Scheduler) Run(ctx context.Context) error {
	sweep := time.NewTicker(s.cfg.SweepInterval)
	defer sweep.Stop()

	var remindC <-chan time.Time
	if s.reminder != nil && s.cfg.ReminderInterval > 0 {
		t := time.NewTicker(s.cfg.ReminderInterval)
		defer t.Stop()
		remindC = t.C
	}

	if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
		s.log.WithError(err).Error("availability sweep failed")
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sweep.C:
			if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				s.log.WithError(err).Error("availability sweep failed")
			}
		case <-remindC:
			s.remind(ctx)
		}
	}
}
