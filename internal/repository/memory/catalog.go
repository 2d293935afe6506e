package memory

import (
	"context"
	"sort"

	"github.com/Domenick1991/paintballpark/internal/domain"
	"github.com/Domenick1991/paintballpark/internal/repository"
)

type catalogRepo struct {
	db *DB
}

func (r *catalogRepo) CreateService(ctx context.Context, svc *domain.ServiceOffering) error {
	return r.db.run(ctx, func(s *state) error {
		for _, other := range s.services {
			if other.Name == svc.Name {
				return domain.NewValidationError("service %q already exists", svc.Name)
			}
		}
		s.services[svc.ID] = *svc
		return nil
	})
}

func (r *catalogRepo) GetService(ctx context.Context, id string) (*domain.ServiceOffering, error) {
	var out domain.ServiceOffering
	err := r.db.run(ctx, func(s *state) error {
		svc, ok := s.services[id]
		if !ok {
			return domain.ErrServiceNotFound
		}
		out = svc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *catalogRepo) ListServices(ctx context.Context) ([]domain.ServiceOffering, error) {
	out := make([]domain.ServiceOffering, 0)
	err := r.db.run(ctx, func(s *state) error {
		for _, svc := range s.services {
			out = append(out, svc)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

func (r *catalogRepo) CreateAmenityType(ctx context.Context, t *domain.AmenityType) error {
	return r.db.run(ctx, func(s *state) error {
		for _, other := range s.amenityTypes {
			if other.Name == t.Name {
				return domain.NewValidationError("amenity type %q already exists", t.Name)
			}
		}
		s.amenityTypes[t.ID] = *t
		return nil
	})
}

func (r *catalogRepo) ListAmenityTypes(ctx context.Context) ([]domain.AmenityType, error) {
	out := make([]domain.AmenityType, 0)
	err := r.db.run(ctx, func(s *state) error {
		for _, t := range s.amenityTypes {
			out = append(out, t)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

func (r *catalogRepo) CreateAmenity(ctx context.Context, a *domain.Amenity) error {
	return r.db.run(ctx, func(s *state) error {
		if a.TypeID != "" {
			if _, ok := s.amenityTypes[a.TypeID]; !ok {
				return domain.NewValidationError("unknown amenity type %s", a.TypeID)
			}
		}
		s.amenities[a.ID] = *a
		return nil
	})
}

func (r *catalogRepo) GetAmenity(ctx context.Context, id string) (*domain.Amenity, error) {
	var out domain.Amenity
	err := r.db.run(ctx, func(s *state) error {
		a, ok := s.amenities[id]
		if !ok {
			return domain.ErrAmenityNotFound
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *catalogRepo) ListAmenities(ctx context.Context) ([]domain.Amenity, error) {
	out := make([]domain.Amenity, 0)
	err := r.db.run(ctx, func(s *state) error {
		for _, a := range s.amenities {
			out = append(out, a)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

func (r *catalogRepo) SetAmenityState(ctx context.Context, id string, st domain.AmenityState) error {
	return r.db.run(ctx, func(s *state) error {
		a, ok := s.amenities[id]
		if !ok {
			return domain.ErrAmenityNotFound
		}
		a.State = st
		s.amenities[id] = a
		return nil
	})
}

var _ repository.CatalogRepository = (*catalogRepo)(nil)
