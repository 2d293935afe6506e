package memory

import (
	"context"
	"sort"
	"time"

	"github.com/Domenick1991/paintballpark/internal/domain"
	"github.com/Domenick1991/paintballpark/internal/repository"
)

type zoneRepo struct {
	db *DB
}

func (r *zoneRepo) Create(ctx context.Context, zone *domain.Zone) error {
	return r.db.run(ctx, func(s *state) error {
		if _, ok := s.zones[zone.ID]; ok {
			return domain.NewValidationError("zone %s already exists", zone.ID)
		}
		for _, z := range s.zones {
			if z.Name == zone.Name {
				return domain.NewValidationError("zone %q already exists", zone.Name)
			}
		}
		if _, ok := s.categories[zone.CategoryID]; !ok {
			return domain.ErrCategoryNotFound
		}
		now := time.Now()
		zone.CreatedAt, zone.UpdatedAt = now, now
		s.zones[zone.ID] = *zone
		return nil
	})
}

func (r *zoneRepo) GetByID(ctx context.Context, id string) (*domain.Zone, error) {
	var out domain.Zone
	err := r.db.run(ctx, func(s *state) error {
		z, ok := s.zones[id]
		if !ok {
			return domain.ErrZoneNotFound
		}
		out = z
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *zoneRepo) List(ctx context.Context) ([]domain.Zone, error) {
	return r.filter(ctx, func(domain.Zone) bool { return true })
}

func (r *zoneRepo) ListByCategories(ctx context.Context, categoryIDs []string) ([]domain.Zone, error) {
	wanted := make(map[string]struct{}, len(categoryIDs))
	for _, id := range categoryIDs {
		wanted[id] = struct{}{}
	}
	return r.filter(ctx, func(z domain.Zone) bool {
		_, ok := wanted[z.CategoryID]
		return ok
	})
}

func (r *zoneRepo) filter(ctx context.Context, keep func(domain.Zone) bool) ([]domain.Zone, error) {
	zones := make([]domain.Zone, 0)
	err := r.db.run(ctx, func(s *state) error {
		for _, z := range s.zones {
			if keep(z) {
				zones = append(zones, z)
			}
		}
		return nil
	})
	sort.Slice(zones, func(i, j int) bool { return zones[i].ID < zones[j].ID })
	return zones, err
}

func (r *zoneRepo) SetAvailable(ctx context.Context, id string, available bool) error {
	return r.db.run(ctx, func(s *state) error {
		z, ok := s.zones[id]
		if !ok {
			return domain.ErrZoneNotFound
		}
		z.Available = available
		z.UpdatedAt = time.Now()
		s.zones[id] = z
		return nil
	})
}

func (r *zoneRepo) Delete(ctx context.Context, id string) error {
	return r.db.run(ctx, func(s *state) error {
		if _, ok := s.zones[id]; !ok {
			return domain.ErrZoneNotFound
		}
		for _, f := range s.folios {
			for _, l := range f.Lines {
				if l.ZoneID == id {
					return domain.NewValidationError("zone %s is referenced by folio lines", id)
				}
			}
		}
		delete(s.zones, id)
		for bid, b := range s.bookings {
			if b.ZoneID == id {
				delete(s.bookings, bid)
			}
		}
		return nil
	})
}

// LockForUpdate only checks existence; the DB mutex already serializes writers.
func (r *zoneRepo) LockForUpdate(ctx context.Context, ids []string) error {
	return r.db.run(ctx, func(s *state) error {
		for _, id := range ids {
			if _, ok := s.zones[id]; !ok {
				return domain.ErrZoneNotFound
			}
		}
		return nil
	})
}

type categoryRepo struct {
	db *DB
}

func (r *categoryRepo) Create(ctx context.Context, c domain.Category) error {
	return r.db.run(ctx, func(s *state) error {
		if _, ok := s.categories[c.ID]; ok {
			return domain.NewValidationError("category %s already exists", c.ID)
		}
		s.categories[c.ID] = c
		return nil
	})
}

func (r *categoryRepo) Update(ctx context.Context, c domain.Category) error {
	return r.db.run(ctx, func(s *state) error {
		if _, ok := s.categories[c.ID]; !ok {
			return domain.ErrCategoryNotFound
		}
		s.categories[c.ID] = c
		return nil
	})
}

func (r *categoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	out := make([]domain.Category, 0)
	err := r.db.run(ctx, func(s *state) error {
		for _, c := range s.categories {
			out = append(out, c)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, err
}

var (
	_ repository.ZoneRepository     = (*zoneRepo)(nil)
	_ repository.CategoryRepository = (*categoryRepo)(nil)
)
