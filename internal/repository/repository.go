package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/paintballpark/internal/domain"
	"github.com/Domenick1991/paintballpark/internal/interval"
)

// Transactor runs fn inside one persistence transaction. Nested calls join
// the outer transaction.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type ZoneRepository interface {
	Create(ctx context.Context, zone *domain.Zone) error
	GetByID(ctx context.Context, id string) (*domain.Zone, error)
	List(ctx context.Context) ([]domain.Zone, error)
	ListByCategories(ctx context.Context, categoryIDs []string) ([]domain.Zone, error)
	SetAvailable(ctx context.Context, id string, available bool) error
	Delete(ctx context.Context, id string) error
	// LockForUpdate row-locks the zones for the rest of the transaction so
	// ledger writes from other processes queue behind this one.
	LockForUpdate(ctx context.Context, ids []string) error
}

type CategoryRepository interface {
	Create(ctx context.Context, category domain.Category) error
	Update(ctx context.Context, category domain.Category) error
	List(ctx context.Context) ([]domain.Category, error)
}

type BookingRepository interface {
	Insert(ctx context.Context, booking *domain.BookingInterval) error
	GetByID(ctx context.Context, id string) (*domain.BookingInterval, error)
	UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error
	// ListAssignedOverlapping returns assigned bookings of the zone whose
	// closed interval intersects iv.
	ListAssignedOverlapping(ctx context.Context, zoneID string, iv interval.Interval) ([]domain.BookingInterval, error)
	ListAssignedCovering(ctx context.Context, zoneID string, at time.Time) ([]domain.BookingInterval, error)
	ListByOwner(ctx context.Context, owner domain.Owner) ([]domain.BookingInterval, error)
	ListAssignedBetween(ctx context.Context, from, to time.Time) ([]domain.BookingInterval, error)
	CountAssignedByZone(ctx context.Context, zoneID string) (int, error)
}

type ReservationRepository interface {
	Create(ctx context.Context, reservation *domain.Reservation) error
	GetByID(ctx context.Context, id string) (*domain.Reservation, error)
	// Update rewrites the header fields and replaces the lines.
	Update(ctx context.Context, reservation *domain.Reservation) error
	UpdateState(ctx context.Context, id string, state domain.ReservationState) error
	Delete(ctx context.Context, id string) error
	ListByState(ctx context.Context, state domain.ReservationState) ([]domain.Reservation, error)
	ListCheckInBetween(ctx context.Context, from, to time.Time) ([]domain.Reservation, error)
	ListCheckOutBetween(ctx context.Context, from, to time.Time) ([]domain.Reservation, error)
	ListWithin(ctx context.Context, from, to time.Time) ([]domain.Reservation, error)
}

type FolioRepository interface {
	Create(ctx context.Context, folio *domain.Folio) error
	GetByID(ctx context.Context, id string) (*domain.Folio, error)
	ListByReservation(ctx context.Context, reservationID string) ([]domain.Folio, error)
	Delete(ctx context.Context, id string) error
	DeleteLine(ctx context.Context, folioID, lineID string) error
	AddServiceLine(ctx context.Context, folioID string, line domain.ServiceLine) error
	SetOrder(ctx context.Context, folioID string, order domain.OrderRef) error
}

type CatalogRepository interface {
	CreateService(ctx context.Context, service *domain.ServiceOffering) error
	GetService(ctx context.Context, id string) (*domain.ServiceOffering, error)
	ListServices(ctx context.Context) ([]domain.ServiceOffering, error)
	CreateAmenityType(ctx context.Context, t *domain.AmenityType) error
	ListAmenityTypes(ctx context.Context) ([]domain.AmenityType, error)
	CreateAmenity(ctx context.Context, amenity *domain.Amenity) error
	GetAmenity(ctx context.Context, id string) (*domain.Amenity, error)
	ListAmenities(ctx context.Context) ([]domain.Amenity, error)
	SetAmenityState(ctx context.Context, id string, state domain.AmenityState) error
}

// SequenceRepository hands out durable per-prefix counters.
type SequenceRepository interface {
	Next(ctx context.Context, prefix string) (int64, error)
}

// Store bundles every repository of one backend.
type Store struct {
	Tx           Transactor
	Zones        ZoneRepository
	Categories   CategoryRepository
	Bookings     BookingRepository
	Reservations ReservationRepository
	Folios       FolioRepository
	Catalog      CatalogRepository

	// Sequences is nil when the backend keeps no durable counters.
	Sequences SequenceRepository
}
