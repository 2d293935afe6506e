package memory

import (
	"context"
	"sort"
	"time"

	"github.com/Domenick1991/paintballpark/internal/domain"
	"github.com/Domenick1991/paintballpark/internal/repository"
)

type reservationRepo struct {
	db *DB
}

func cloneLines(lines []domain.ReservationLine) []domain.ReservationLine {
	out := make([]domain.ReservationLine, len(lines))
	for i, l := range lines {
		l.ZoneIDs = append([]string(nil), l.ZoneIDs...)
		out[i] = l
	}
	return out
}

// withFolios returns a detached copy of res carrying its folio IDs.
func (s *state) withFolios(res domain.Reservation) domain.Reservation {
	res.Lines = cloneLines(res.Lines)
	type ref struct {
		id      string
		created time.Time
	}
	refs := make([]ref, 0)
	for _, f := range s.folios {
		if f.ReservationID == res.ID {
			refs = append(refs, ref{id: f.ID, created: f.CreatedAt})
		}
	}
	sort.Slice(refs, func(i, j int) bool {
		if !refs[i].created.Equal(refs[j].created) {
			return refs[i].created.Before(refs[j].created)
		}
		return refs[i].id < refs[j].id
	})
	res.FolioIDs = make([]string, 0, len(refs))
	for _, r := range refs {
		res.FolioIDs = append(res.FolioIDs, r.id)
	}
	return res
}

func (r *reservationRepo) Create(ctx context.Context, res *domain.Reservation) error {
	return r.db.run(ctx, func(s *state) error {
		if _, ok := s.reservations[res.ID]; ok {
			return domain.NewValidationError("reservation %s already exists", res.ID)
		}
		for _, other := range s.reservations {
			if other.Number == res.Number {
				return domain.NewValidationError("reservation number %s already used", res.Number)
			}
		}
		now := time.Now()
		res.CreatedAt, res.UpdatedAt = now, now
		stored := *res
		stored.Lines = cloneLines(res.Lines)
		stored.FolioIDs = nil
		s.reservations[res.ID] = stored
		return nil
	})
}

func (r *reservationRepo) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	var out domain.Reservation
	err := r.db.run(ctx, func(s *state) error {
		res, ok := s.reservations[id]
		if !ok {
			return domain.ErrReservationNotFound
		}
		out = s.withFolios(res)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *reservationRepo) Update(ctx context.Context, res *domain.Reservation) error {
	return r.db.run(ctx, func(s *state) error {
		stored, ok := s.reservations[res.ID]
		if !ok {
			return domain.ErrReservationNotFound
		}
		stored.GuestID = res.GuestID
		stored.GuestEmail = res.GuestEmail
		stored.CheckIn = res.CheckIn
		stored.CheckOut = res.CheckOut
		stored.Adults = res.Adults
		stored.Children = res.Children
		stored.Lines = cloneLines(res.Lines)
		stored.UpdatedAt = time.Now()
		res.UpdatedAt = stored.UpdatedAt
		s.reservations[res.ID] = stored
		return nil
	})
}

func (r *reservationRepo) UpdateState(ctx context.Context, id string, st domain.ReservationState) error {
	return r.db.run(ctx, func(s *state) error {
		res, ok := s.reservations[id]
		if !ok {
			return domain.ErrReservationNotFound
		}
		res.State = st
		res.UpdatedAt = time.Now()
		s.reservations[id] = res
		return nil
	})
}

func (r *reservationRepo) Delete(ctx context.Context, id string) error {
	return r.db.run(ctx, func(s *state) error {
		if _, ok := s.reservations[id]; !ok {
			return domain.ErrReservationNotFound
		}
		delete(s.reservations, id)
		return nil
	})
}

func (r *reservationRepo) ListByState(ctx context.Context, st domain.ReservationState) ([]domain.Reservation, error) {
	return r.filter(ctx, func(res domain.Reservation) bool { return res.State == st })
}

func (r *reservationRepo) ListCheckInBetween(ctx context.Context, from, to time.Time) ([]domain.Reservation, error) {
	return r.filter(ctx, func(res domain.Reservation) bool {
		return !res.CheckIn.Before(from) && !res.CheckIn.After(to)
	})
}

func (r *reservationRepo) ListCheckOutBetween(ctx context.Context, from, to time.Time) ([]domain.Reservation, error) {
	return r.filter(ctx, func(res domain.Reservation) bool {
		return !res.CheckOut.Before(from) && !res.CheckOut.After(to)
	})
}

func (r *reservationRepo) ListWithin(ctx context.Context, from, to time.Time) ([]domain.Reservation, error) {
	return r.filter(ctx, func(res domain.Reservation) bool {
		return !res.CheckIn.Before(from) && !res.CheckOut.After(to)
	})
}

func (r *reservationRepo) filter(ctx context.Context, keep func(domain.Reservation) bool) ([]domain.Reservation, error) {
	out := make([]domain.Reservation, 0)
	err := r.db.run(ctx, func(s *state) error {
		for _, res := range s.reservations {
			if keep(res) {
				out = append(out, s.withFolios(res))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CheckIn.Equal(out[j].CheckIn) {
			return out[i].CheckIn.Before(out[j].CheckIn)
		}
		return out[i].Number < out[j].Number
	})
	return out, err
}

var _ repository.ReservationRepository = (*reservationRepo)(nil)
