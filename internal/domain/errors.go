package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrZoneNotFound        = fmt.Errorf("zone %w", ErrNotFound)
	ErrBookingNotFound     = fmt.Errorf("booking %w", ErrNotFound)
	ErrReservationNotFound = fmt.Errorf("reservation %w", ErrNotFound)
	ErrFolioNotFound       = fmt.Errorf("folio %w", ErrNotFound)
	ErrCategoryNotFound    = fmt.Errorf("category %w", ErrNotFound)
	ErrServiceNotFound     = fmt.Errorf("service %w", ErrNotFound)
	ErrAmenityNotFound     = fmt.Errorf("amenity %w", ErrNotFound)
)

// ValidationError reports structurally invalid input.
type ValidationError struct {
	Msg string
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// ConflictError reports a zone already booked in the requested window.
type ConflictError struct {
	ZoneID    string
	BookingID string
	Dates     []time.Time
}

func (e *ConflictError) Error() string {
	dates := make([]string, 0, len(e.Dates))
	for _, d := range e.Dates {
		dates = append(dates, d.Format("02/01/2006"))
	}
	return fmt.Sprintf("zone %s is already reserved in this period, overlap dates are [%s]", e.ZoneID, strings.Join(dates, ", "))
}

// LifecycleError reports an illegal state transition.
type LifecycleError struct {
	Op    string
	State string
	Msg   string
}

func (e *LifecycleError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("%s not allowed in state %s", e.Op, e.State)
}

// ErrAlreadyMaterialized is matched with errors.Is against a LifecycleError.
var ErrAlreadyMaterialized = &LifecycleError{Op: "materialize", Msg: "reservation already has a folio"}

func (e *LifecycleError) Is(target error) bool {
	t, ok := target.(*LifecycleError)
	if !ok {
		return false
	}
	return e.Op == t.Op && e.Msg == t.Msg && (t.State == "" || e.State == t.State)
}

// ReconciliationAnomaly is a zone claimed at the same instant by both a
// reservation booking and a direct folio booking.
type ReconciliationAnomaly struct {
	ZoneID             string
	At                 time.Time
	ReservationBooking string
	FolioBooking       string
}

func (a ReconciliationAnomaly) Error() string {
	return fmt.Sprintf("zone %s double booked at %s (reservation booking %s, folio booking %s)",
		a.ZoneID, a.At.Format(time.RFC3339), a.ReservationBooking, a.FolioBooking)
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}

func IsLifecycle(err error) bool {
	var l *LifecycleError
	return errors.As(err, &l)
}
