// Package ledger is the single authority over zone occupancy. Every
// assignment, release and availability flip of a zone goes through it,
// under that zone's exclusive lock and inside one persistence transaction.
package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Domenick1991/paintballpark/internal/clock"
	"github.com/Domenick1991/paintballpark/internal/domain"
	"github.com/Domenick1991/paintballpark/internal/interval"
	"github.com/Domenick1991/paintballpark/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type AssignRequest struct {
	ZoneID   string
	Interval interval.Interval
	Source   domain.BookingSource
	Owner    domain.Owner
}

func (r AssignRequest) validate() error {
	if r.ZoneID == "" {
		return domain.NewValidationError("zone is required")
	}
	if err := r.Interval.Validate(); err != nil {
		return domain.NewValidationError("%s", err.Error())
	}
	if r.Source != domain.SourceReservation && r.Source != domain.SourceDirectFolio {
		return domain.NewValidationError("unknown booking source %q", r.Source)
	}
	if r.Owner.ID == "" || (r.Owner.Kind != domain.OwnerReservation && r.Owner.Kind != domain.OwnerFolioLine) {
		return domain.NewValidationError("booking owner is required")
	}
	return nil
}

// ReconcileResult is the outcome of re-deriving one zone's availability.
type ReconcileResult struct {
	ZoneID    string
	Available bool
	Changed   bool
	Anomalies []domain.ReconciliationAnomaly
}

type Ledger struct {
	locks  *zoneLocks
	store  *repository.Store
	clock  clock.Clock
	locale clock.Locale
	log    logrus.FieldLogger
}

func New(store *repository.Store, clk clock.Clock, locale clock.Locale, log logrus.FieldLogger) *Ledger {
	if clk == nil {
		clk = clock.NewSystem()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Ledger{
		locks:  newZoneLocks(),
		store:  store,
		clock:  clk,
		locale: locale,
		log:    log.WithField("component", "ledger"),
	}
}

// Batch locks zoneIDs in ascending order, opens one transaction and hands
// fn a Tx restricted to those zones. When fn fails the steps it completed
// are compensated in reverse order before the transaction rolls back.
func (l *Ledger) Batch(ctx context.Context, zoneIDs []string, fn func(ctx context.Context, tx *Tx) error) error {
	zones := sortedUnique(zoneIDs)
	release, err := l.locks.acquire(ctx, zones)
	if err != nil {
		return err
	}
	defer release()

	return l.store.Tx.WithTx(ctx, func(ctx context.Context) error {
		if len(zones) > 0 {
			if err := l.store.Zones.LockForUpdate(ctx, zones); err != nil {
				return err
			}
		}
		tx := &Tx{ledger: l, zones: make(map[string]struct{}, len(zones))}
		for _, id := range zones {
			tx.zones[id] = struct{}{}
		}
		if err := fn(ctx, tx); err != nil {
			tx.compensate(ctx)
			return err
		}
		return nil
	})
}

// TryAssign records an assigned booking of req.ZoneID unless another
// assigned booking of the zone overlaps it.
func (l *Ledger) TryAssign(ctx context.Context, req AssignRequest) (domain.BookingInterval, error) {
	var booking domain.BookingInterval
	err := l.Batch(ctx, []string{req.ZoneID}, func(ctx context.Context, tx *Tx) error {
		var err error
		booking, err = tx.TryAssign(ctx, req)
		return err
	})
	return booking, err
}

// Release marks a booking unassigned and re-derives its zone's availability.
func (l *Ledger) Release(ctx context.Context, bookingID string) error {
	b, err := l.store.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	return l.Batch(ctx, []string{b.ZoneID}, func(ctx context.Context, tx *Tx) error {
		return tx.Release(ctx, bookingID, domain.BookingUnassigned)
	})
}

// FindConflicts lists assigned bookings of the zone overlapping iv.
func (l *Ledger) FindConflicts(ctx context.Context, zoneID string, iv interval.Interval) ([]domain.BookingInterval, error) {
	if err := iv.Validate(); err != nil {
		return nil, domain.NewValidationError("%s", err.Error())
	}
	return l.store.Bookings.ListAssignedOverlapping(ctx, zoneID, iv)
}

// Refresh re-marks the zone occupied on behalf of an owner that already
// holds an assignment there.
func (l *Ledger) Refresh(ctx context.Context, zoneID string, owner domain.Owner) (domain.BookingInterval, error) {
	var booking domain.BookingInterval
	err := l.Batch(ctx, []string{zoneID}, func(ctx context.Context, tx *Tx) error {
		var err error
		booking, err = tx.Refresh(ctx, zoneID, owner)
		return err
	})
	return booking, err
}

// Reconcile sets the zone's Available flag to "no assigned booking covers
// now" and reports instants claimed by both booking sources. Anomalies are
// reported, never corrected.
func (l *Ledger) Reconcile(ctx context.Context, zoneID string, now time.Time) (ReconcileResult, error) {
	var result ReconcileResult
	err := l.Batch(ctx, []string{zoneID}, func(ctx context.Context, tx *Tx) error {
		var err error
		result, err = tx.reconcile(ctx, zoneID, now)
		return err
	})
	return result, err
}

// Tx is the view of the ledger inside a Batch.
type Tx struct {
	ledger *Ledger
	zones  map[string]struct{}
	undo   []func(ctx context.Context) error
}

func (t *Tx) checkZone(zoneID string) error {
	if _, ok := t.zones[zoneID]; !ok {
		return fmt.Errorf("zone %s is not locked by this batch", zoneID)
	}
	return nil
}

func (t *Tx) TryAssign(ctx context.Context, req AssignRequest) (domain.BookingInterval, error) {
	if err := req.validate(); err != nil {
		return domain.BookingInterval{}, err
	}
	if err := t.checkZone(req.ZoneID); err != nil {
		return domain.BookingInterval{}, err
	}
	l := t.ledger
	zone, err := l.store.Zones.GetByID(ctx, req.ZoneID)
	if err != nil {
		return domain.BookingInterval{}, err
	}

	existing, err := l.store.Bookings.ListAssignedOverlapping(ctx, req.ZoneID, req.Interval)
	if err != nil {
		return domain.BookingInterval{}, err
	}
	for _, b := range existing {
		if b.Owner == req.Owner && b.CheckIn.Equal(req.Interval.Start) && b.CheckOut.Equal(req.Interval.End) {
			return b, nil
		}
	}
	if len(existing) > 0 {
		return domain.BookingInterval{}, t.conflict(req, existing)
	}

	booking := domain.BookingInterval{
		ID:       uuid.NewString(),
		ZoneID:   req.ZoneID,
		CheckIn:  req.Interval.Start,
		CheckOut: req.Interval.End,
		Source:   req.Source,
		Status:   domain.BookingAssigned,
		Owner:    req.Owner,
	}
	if err := l.store.Bookings.Insert(ctx, &booking); err != nil {
		return domain.BookingInterval{}, err
	}
	t.undo = append(t.undo, func(ctx context.Context) error {
		return l.store.Bookings.UpdateStatus(ctx, booking.ID, domain.BookingCancelled)
	})

	if zone.Available {
		if err := l.store.Zones.SetAvailable(ctx, zone.ID, false); err != nil {
			return domain.BookingInterval{}, err
		}
		t.undo = append(t.undo, func(ctx context.Context) error {
			return l.store.Zones.SetAvailable(ctx, zone.ID, true)
		})
	}

	l.log.WithFields(logrus.Fields{
		"zone_id":    booking.ZoneID,
		"booking_id": booking.ID,
		"source":     booking.Source,
		"owner":      booking.Owner.ID,
	}).Info("zone assigned")
	return booking, nil
}

func (t *Tx) conflict(req AssignRequest, existing []domain.BookingInterval) error {
	days := make(map[time.Time]struct{})
	for _, b := range existing {
		for _, d := range interval.OverlapDates(b.Interval(), req.Interval, t.ledger.locale) {
			days[d] = struct{}{}
		}
	}
	dates := make([]time.Time, 0, len(days))
	for d := range days {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	t.ledger.log.WithFields(logrus.Fields{
		"zone_id":     req.ZoneID,
		"conflicting": existing[0].ID,
		"owner":       req.Owner.ID,
	}).Info("zone assignment rejected")
	return &domain.ConflictError{ZoneID: req.ZoneID, BookingID: existing[0].ID, Dates: dates}
}

// Release moves an assigned booking to status and re-derives the zone's
// availability. Releasing a booking that is no longer assigned is a no-op.
func (t *Tx) Release(ctx context.Context, bookingID string, status domain.BookingStatus) error {
	if status == domain.BookingAssigned {
		return domain.NewValidationError("release needs a non-assigned status")
	}
	l := t.ledger
	b, err := l.store.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if err := t.checkZone(b.ZoneID); err != nil {
		return err
	}
	if !b.IsAssigned() {
		return nil
	}
	if err := l.store.Bookings.UpdateStatus(ctx, b.ID, status); err != nil {
		return err
	}
	t.undo = append(t.undo, func(ctx context.Context) error {
		return l.store.Bookings.UpdateStatus(ctx, b.ID, domain.BookingAssigned)
	})
	if err := t.syncAvailability(ctx, b.ZoneID); err != nil {
		return err
	}

	l.log.WithFields(logrus.Fields{
		"zone_id":    b.ZoneID,
		"booking_id": b.ID,
		"status":     status,
	}).Info("zone released")
	return nil
}

// ReleaseOwner releases every assigned booking of owner.
func (t *Tx) ReleaseOwner(ctx context.Context, owner domain.Owner, status domain.BookingStatus) error {
	bookings, err := t.ledger.store.Bookings.ListByOwner(ctx, owner)
	if err != nil {
		return err
	}
	for _, b := range bookings {
		if !b.IsAssigned() {
			continue
		}
		if err := t.Release(ctx, b.ID, status); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tx) Refresh(ctx context.Context, zoneID string, owner domain.Owner) (domain.BookingInterval, error) {
	if err := t.checkZone(zoneID); err != nil {
		return domain.BookingInterval{}, err
	}
	l := t.ledger
	bookings, err := l.store.Bookings.ListByOwner(ctx, owner)
	if err != nil {
		return domain.BookingInterval{}, err
	}
	for _, b := range bookings {
		if b.ZoneID != zoneID || !b.IsAssigned() {
			continue
		}
		zone, err := l.store.Zones.GetByID(ctx, zoneID)
		if err != nil {
			return domain.BookingInterval{}, err
		}
		if zone.Available {
			if err := l.store.Zones.SetAvailable(ctx, zoneID, false); err != nil {
				return domain.BookingInterval{}, err
			}
			t.undo = append(t.undo, func(ctx context.Context) error {
				return l.store.Zones.SetAvailable(ctx, zoneID, true)
			})
		}
		return b, nil
	}
	return domain.BookingInterval{}, fmt.Errorf("zone %s has no assignment for %s %s: %w", zoneID, owner.Kind, owner.ID, domain.ErrBookingNotFound)
}

// syncAvailability sets Available to "no assigned booking covers now".
func (t *Tx) syncAvailability(ctx context.Context, zoneID string) error {
	l := t.ledger
	covering, err := l.store.Bookings.ListAssignedCovering(ctx, zoneID, l.clock.Now())
	if err != nil {
		return err
	}
	zone, err := l.store.Zones.GetByID(ctx, zoneID)
	if err != nil {
		return err
	}
	want := len(covering) == 0
	if zone.Available == want {
		return nil
	}
	if err := l.store.Zones.SetAvailable(ctx, zoneID, want); err != nil {
		return err
	}
	t.undo = append(t.undo, func(ctx context.Context) error {
		return l.store.Zones.SetAvailable(ctx, zoneID, !want)
	})
	return nil
}

func (t *Tx) reconcile(ctx context.Context, zoneID string, now time.Time) (ReconcileResult, error) {
	l := t.ledger
	result := ReconcileResult{ZoneID: zoneID}

	covering, err := l.store.Bookings.ListAssignedCovering(ctx, zoneID, now)
	if err != nil {
		return result, err
	}
	zone, err := l.store.Zones.GetByID(ctx, zoneID)
	if err != nil {
		return result, err
	}

	result.Available = len(covering) == 0
	if zone.Available != result.Available {
		if err := l.store.Zones.SetAvailable(ctx, zoneID, result.Available); err != nil {
			return result, err
		}
		result.Changed = true
	}

	for _, r := range covering {
		if r.Source != domain.SourceReservation {
			continue
		}
		for _, f := range covering {
			if f.Source != domain.SourceDirectFolio {
				continue
			}
			result.Anomalies = append(result.Anomalies, domain.ReconciliationAnomaly{
				ZoneID:             zoneID,
				At:                 now,
				ReservationBooking: r.ID,
				FolioBooking:       f.ID,
			})
		}
	}
	return result, nil
}

func (t *Tx) compensate(ctx context.Context) {
	for i := len(t.undo) - 1; i >= 0; i-- {
		if err := t.undo[i](ctx); err != nil {
			t.ledger.log.WithError(err).Warn("ledger compensation step failed")
			return
		}
	}
	t.undo = nil
}
