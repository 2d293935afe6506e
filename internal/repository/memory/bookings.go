package memory

import (
	"context"
	"sort"
	"time"

	"github.com/Domenick1991/paintballpark/internal/domain"
	"github.com/Domenick1991/paintballpark/internal/interval"
	"github.com/Domenick1991/paintballpark/internal/repository"
)

type bookingRepo struct {
	db *DB
}

func (r *bookingRepo) Insert(ctx context.Context, b *domain.BookingInterval) error {
	return r.db.run(ctx, func(s *state) error {
		if _, ok := s.bookings[b.ID]; ok {
			return domain.NewValidationError("booking %s already exists", b.ID)
		}
		if _, ok := s.zones[b.ZoneID]; !ok {
			return domain.ErrZoneNotFound
		}
		now := time.Now()
		b.CreatedAt, b.UpdatedAt = now, now
		s.bookings[b.ID] = *b
		return nil
	})
}

func (r *bookingRepo) GetByID(ctx context.Context, id string) (*domain.BookingInterval, error) {
	var out domain.BookingInterval
	err := r.db.run(ctx, func(s *state) error {
		b, ok := s.bookings[id]
		if !ok {
			return domain.ErrBookingNotFound
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *bookingRepo) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error {
	return r.db.run(ctx, func(s *state) error {
		b, ok := s.bookings[id]
		if !ok {
			return domain.ErrBookingNotFound
		}
		b.Status = status
		b.UpdatedAt = time.Now()
		s.bookings[id] = b
		return nil
	})
}

func (r *bookingRepo) ListAssignedOverlapping(ctx context.Context, zoneID string, iv interval.Interval) ([]domain.BookingInterval, error) {
	return r.filter(ctx, func(b domain.BookingInterval) bool {
		return b.ZoneID == zoneID && b.IsAssigned() && interval.Overlaps(b.Interval(), iv)
	})
}

func (r *bookingRepo) ListAssignedCovering(ctx context.Context, zoneID string, at time.Time) ([]domain.BookingInterval, error) {
	return r.filter(ctx, func(b domain.BookingInterval) bool {
		return b.ZoneID == zoneID && b.IsAssigned() && b.Interval().Covers(at)
	})
}

func (r *bookingRepo) ListByOwner(ctx context.Context, owner domain.Owner) ([]domain.BookingInterval, error) {
	return r.filter(ctx, func(b domain.BookingInterval) bool {
		return b.Owner == owner
	})
}

func (r *bookingRepo) ListAssignedBetween(ctx context.Context, from, to time.Time) ([]domain.BookingInterval, error) {
	window := interval.Interval{Start: from, End: to}
	return r.filter(ctx, func(b domain.BookingInterval) bool {
		return b.IsAssigned() && interval.Overlaps(b.Interval(), window)
	})
}

func (r *bookingRepo) CountAssignedByZone(ctx context.Context, zoneID string) (int, error) {
	list, err := r.filter(ctx, func(b domain.BookingInterval) bool {
		return b.ZoneID == zoneID && b.IsAssigned()
	})
	return len(list), err
}

func (r *bookingRepo) filter(ctx context.Context, keep func(domain.BookingInterval) bool) ([]domain.BookingInterval, error) {
	out := make([]domain.BookingInterval, 0)
	err := r.db.run(ctx, func(s *state) error {
		for _, b := range s.bookings {
			if keep(b) {
				out = append(out, b)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].ZoneID != out[j].ZoneID {
			return out[i].ZoneID < out[j].ZoneID
		}
		if !out[i].CheckIn.Equal(out[j].CheckIn) {
			return out[i].CheckIn.Before(out[j].CheckIn)
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

var _ repository.BookingRepository = (*bookingRepo)(nil)
