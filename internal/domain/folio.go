package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderRef links a folio to the record the invoicing system created for it.
type OrderRef struct {
	InvoiceRef string
	InvoicedAt time.Time
}

func (o OrderRef) Invoiced() bool {
	return o.InvoiceRef != ""
}

// Folio is the billing document of a stay.
type Folio struct {
	ID            string
	Number        string
	GuestID       string
	CheckIn       time.Time
	CheckOut      time.Time
	Duration      int
	ReservationID string
	Order         OrderRef
	Lines         []FolioLine
	ServiceLines  []ServiceLine
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FolioLine bills one zone for the folio's stay. IsReserved marks lines
// mirroring a reservation-confirmed booking.
type FolioLine struct {
	ID         string
	ZoneID     string
	CheckIn    time.Time
	CheckOut   time.Time
	Quantity   int
	UnitPrice  decimal.Decimal
	IsReserved bool
	BookingID  string
}

func (l FolioLine) Owner() Owner {
	return Owner{Kind: OwnerFolioLine, ID: l.ID}
}

func (l FolioLine) Amount() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type ServiceLine struct {
	ID        string
	ServiceID string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

func (l ServiceLine) Amount() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Total sums zone and service lines.
func (f Folio) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range f.Lines {
		total = total.Add(l.Amount())
	}
	for _, l := range f.ServiceLines {
		total = total.Add(l.Amount())
	}
	return total
}
