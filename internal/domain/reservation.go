package domain

import (
	"time"

	"github.com/Domenick1991/paintballpark/internal/interval"
)

type ReservationState string

const (
	ReservationDraft   ReservationState = "draft"
	ReservationConfirm ReservationState = "confirm"
	ReservationCancel  ReservationState = "cancel"
	ReservationDone    ReservationState = "done"
)

// Terminal states have no outgoing transition.
func (s ReservationState) Terminal() bool {
	return s == ReservationCancel || s == ReservationDone
}

type Reservation struct {
	ID         string
	Number     string
	GuestID    string
	GuestEmail string
	CheckIn    time.Time
	CheckOut   time.Time
	Adults     int
	Children   int
	Lines      []ReservationLine
	State      ReservationState
	FolioIDs   []string
	OrderedAt  time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ReservationLine groups the zones chosen for one zone category.
type ReservationLine struct {
	ID         string
	Name       string
	CategoryID string
	ZoneIDs    []string
}

func (r Reservation) Interval() interval.Interval {
	return interval.Interval{Start: r.CheckIn, End: r.CheckOut}
}

func (r Reservation) Guests() int {
	return r.Adults + r.Children
}

// ZoneIDs returns every chosen zone in line order, without duplicates.
func (r Reservation) ZoneIDs() []string {
	seen := make(map[string]struct{})
	ids := make([]string, 0)
	for _, line := range r.Lines {
		for _, id := range line.ZoneIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

// Owner is the ledger owner reference of this reservation's bookings.
func (r Reservation) Owner() Owner {
	return Owner{Kind: OwnerReservation, ID: r.ID}
}
