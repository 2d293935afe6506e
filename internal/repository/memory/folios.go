package memory

import (
	"context"
	"sort"
	"time"

	"github.com/Domenick1991/paintballpark/internal/domain"
	"github.com/Domenick1991/paintballpark/internal/repository"
)

type folioRepo struct {
	db *DB
}

func cloneFolio(f domain.Folio) domain.Folio {
	f.Lines = append(make([]domain.FolioLine, 0, len(f.Lines)), f.Lines...)
	f.ServiceLines = append(make([]domain.ServiceLine, 0, len(f.ServiceLines)), f.ServiceLines...)
	return f
}

func (r *folioRepo) Create(ctx context.Context, f *domain.Folio) error {
	return r.db.run(ctx, func(s *state) error {
		if _, ok := s.folios[f.ID]; ok {
			return domain.NewValidationError("folio %s already exists", f.ID)
		}
		for _, other := range s.folios {
			if other.Number == f.Number {
				return domain.NewValidationError("folio number %s already used", f.Number)
			}
		}
		if f.ReservationID != "" {
			if _, ok := s.reservations[f.ReservationID]; !ok {
				return domain.ErrReservationNotFound
			}
		}
		now := time.Now()
		f.CreatedAt, f.UpdatedAt = now, now
		s.folios[f.ID] = cloneFolio(*f)
		return nil
	})
}

func (r *folioRepo) GetByID(ctx context.Context, id string) (*domain.Folio, error) {
	var out domain.Folio
	err := r.db.run(ctx, func(s *state) error {
		f, ok := s.folios[id]
		if !ok {
			return domain.ErrFolioNotFound
		}
		out = cloneFolio(f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *folioRepo) ListByReservation(ctx context.Context, reservationID string) ([]domain.Folio, error) {
	out := make([]domain.Folio, 0)
	err := r.db.run(ctx, func(s *state) error {
		for _, f := range s.folios {
			if f.ReservationID == reservationID {
				out = append(out, cloneFolio(f))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, err
}

func (r *folioRepo) Delete(ctx context.Context, id string) error {
	return r.db.run(ctx, func(s *state) error {
		if _, ok := s.folios[id]; !ok {
			return domain.ErrFolioNotFound
		}
		delete(s.folios, id)
		return nil
	})
}

func (r *folioRepo) update(ctx context.Context, id string, fn func(f *domain.Folio) error) error {
	return r.db.run(ctx, func(s *state) error {
		stored, ok := s.folios[id]
		if !ok {
			return domain.ErrFolioNotFound
		}
		f := cloneFolio(stored)
		if err := fn(&f); err != nil {
			return err
		}
		f.UpdatedAt = time.Now()
		s.folios[id] = f
		return nil
	})
}

func (r *folioRepo) DeleteLine(ctx context.Context, folioID, lineID string) error {
	return r.update(ctx, folioID, func(f *domain.Folio) error {
		for i, l := range f.Lines {
			if l.ID == lineID {
				f.Lines = append(f.Lines[:i], f.Lines[i+1:]...)
				return nil
			}
		}
		return domain.ErrFolioNotFound
	})
}

func (r *folioRepo) AddServiceLine(ctx context.Context, folioID string, line domain.ServiceLine) error {
	return r.update(ctx, folioID, func(f *domain.Folio) error {
		f.ServiceLines = append(f.ServiceLines, line)
		return nil
	})
}

func (r *folioRepo) SetOrder(ctx context.Context, folioID string, order domain.OrderRef) error {
	return r.update(ctx, folioID, func(f *domain.Folio) error {
		f.Order = order
		return nil
	})
}

var _ repository.FolioRepository = (*folioRepo)(nil)
