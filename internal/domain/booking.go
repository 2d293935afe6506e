package domain

import (
	"time"

	"github.com/Domenick1991/paintballpark/internal/interval"
)

type BookingSource string

const (
	SourceDirectFolio BookingSource = "direct-folio"
	SourceReservation BookingSource = "reservation"
)

type BookingStatus string

const (
	BookingAssigned   BookingStatus = "assigned"
	BookingUnassigned BookingStatus = "unassigned"
	BookingCancelled  BookingStatus = "cancelled"
)

type OwnerKind string

const (
	OwnerReservation OwnerKind = "reservation"
	OwnerFolioLine   OwnerKind = "folio_line"
)

// Owner points at the single record a booking belongs to.
type Owner struct {
	Kind OwnerKind
	ID   string
}

// BookingInterval is one occupancy record of a zone.
type BookingInterval struct {
	ID        string
	ZoneID    string
	CheckIn   time.Time
	CheckOut  time.Time
	Source    BookingSource
	Status    BookingStatus
	Owner     Owner
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (b BookingInterval) Interval() interval.Interval {
	return interval.Interval{Start: b.CheckIn, End: b.CheckOut}
}

func (b BookingInterval) IsAssigned() bool {
	return b.Status == BookingAssigned
}
