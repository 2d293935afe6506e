// Package memory is an in-process implementation of the repository
// interfaces, used by tests and by the "memory" storage driver.
//
// All state sits behind one mutex. WithTx holds that mutex for the whole
// callback and restores a snapshot when the callback fails, so every
// transaction is serializable and rollbacks are exact. Stored values are
// never mutated in place: writers store fresh copies, which keeps the
// snapshot a cheap shallow copy of the maps.
package memory

import (
	"context"
	"sync"

	"github.com/Domenick1991/paintballpark/internal/domain"
	"github.com/Domenick1991/paintballpark/internal/repository"
)

type state struct {
	zones        map[string]domain.Zone
	categories   map[string]domain.Category
	bookings     map[string]domain.BookingInterval
	reservations map[string]domain.Reservation
	folios       map[string]domain.Folio
	services     map[string]domain.ServiceOffering
	amenityTypes map[string]domain.AmenityType
	amenities    map[string]domain.Amenity
}

func newState() *state {
	return &state{
		zones:        make(map[string]domain.Zone),
		categories:   make(map[string]domain.Category),
		bookings:     make(map[string]domain.BookingInterval),
		reservations: make(map[string]domain.Reservation),
		folios:       make(map[string]domain.Folio),
		services:     make(map[string]domain.ServiceOffering),
		amenityTypes: make(map[string]domain.AmenityType),
		amenities:    make(map[string]domain.Amenity),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *state) snapshot() *state {
	return &state{
		zones:        cloneMap(s.zones),
		categories:   cloneMap(s.categories),
		bookings:     cloneMap(s.bookings),
		reservations: cloneMap(s.reservations),
		folios:       cloneMap(s.folios),
		services:     cloneMap(s.services),
		amenityTypes: cloneMap(s.amenityTypes),
		amenities:    cloneMap(s.amenities),
	}
}

type txKey struct{}

type DB struct {
	mu    sync.Mutex
	state *state
}

func NewDB() *DB {
	return &DB{state: newState()}
}

// New returns a Store backed by a fresh in-memory database.
func New() *repository.Store {
	return NewDB().Store()
}

func (db *DB) Store() *repository.Store {
	return &repository.Store{
		Tx:           db,
		Zones:        &zoneRepo{db: db},
		Categories:   &categoryRepo{db: db},
		Bookings:     &bookingRepo{db: db},
		Reservations: &reservationRepo{db: db},
		Folios:       &folioRepo{db: db},
		Catalog:      &catalogRepo{db: db},
	}
}

func (db *DB) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*DB)
	return owner == db
}

func (db *DB) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if db.inTx(ctx) {
		return fn(ctx)
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	saved := db.state.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, db)); err != nil {
		db.state = saved
		return err
	}
	return nil
}

// run executes fn against the state, taking the lock unless ctx already
// belongs to a transaction of this DB.
func (db *DB) run(ctx context.Context, fn func(s *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if db.inTx(ctx) {
		return fn(db.state)
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	return fn(db.state)
}

var _ repository.Transactor = (*DB)(nil)
