package kafka

import "time"

const (
	EventReservationConfirmed = "reservation_confirmed"
	EventReservationCancelled = "reservation_cancelled"
	EventReservationDone      = "reservation_done"
	EventFolioCreated         = "folio_created"
	EventFolioInvoiced        = "folio_invoiced"
)

// ParkEvent is the payload of the booking events topic.
type ParkEvent struct {
	Type          string    `json:"type"`
	ReservationID string    `json:"reservation_id,omitempty"`
	FolioID       string    `json:"folio_id,omitempty"`
	Number        string    `json:"number"`
	GuestID       string    `json:"guest_id"`
	ZoneIDs       []string  `json:"zone_ids"`
	CheckIn       time.Time `json:"check_in"`
	CheckOut      time.Time `json:"check_out"`
	State         string    `json:"state,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Notification asks the worker to send one templated message to a guest.
type Notification struct {
	Template      string    `json:"template"`
	ReservationID string    `json:"reservation_id"`
	Number        string    `json:"number"`
	Email         string    `json:"email"`
	CheckIn       time.Time `json:"check_in"`
	CheckOut      time.Time `json:"check_out"`
	Guests        int       `json:"guests"`
}
