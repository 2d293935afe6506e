package repository

import (
	"context"
	"fmt"

	"github.com/Domenick1991/paintballpark/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PGCatalogRepository stores service offerings and amenities.
type PGCatalogRepository struct {
	db *pgxpool.Pool
}

func NewCatalogRepository(db *pgxpool.Pool) CatalogRepository {
	return &PGCatalogRepository{db: db}
}

func parsePrice(s string) (decimal.Decimal, error) {
	p, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse price %q: %w", s, err)
	}
	return p, nil
}

func (r *PGCatalogRepository) CreateService(ctx context.Context, s *domain.ServiceOffering) error {
	_, err := conn(ctx, r.db).Exec(ctx, `INSERT INTO services (id, name, product_ref, list_price) VALUES ($1, $2, $3, $4::numeric)`,
		s.ID, s.Name, s.Catalog.ProductRef, s.Catalog.ListPrice.String())
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewValidationError("service %q already exists", s.Name)
		}
		return fmt.Errorf("create service: %w", err)
	}
	return nil
}

func scanService(row pgx.Row) (domain.ServiceOffering, error) {
	var s domain.ServiceOffering
	var price string
	if err := row.Scan(&s.ID, &s.Name, &s.Catalog.ProductRef, &price); err != nil {
		return domain.ServiceOffering{}, err
	}
	p, err := parsePrice(price)
	if err != nil {
		return domain.ServiceOffering{}, err
	}
	s.Catalog.ListPrice = p
	return s, nil
}

func (r *PGCatalogRepository) GetService(ctx context.Context, id string) (*domain.ServiceOffering, error) {
	s, err := scanService(conn(ctx, r.db).QueryRow(ctx, `SELECT id, name, product_ref, list_price::text FROM services WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err, domain.ErrServiceNotFound)
	}
	return &s, nil
}

func (r *PGCatalogRepository) ListServices(ctx context.Context) ([]domain.ServiceOffering, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `SELECT id, name, product_ref, list_price::text FROM services ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	services := make([]domain.ServiceOffering, 0)
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

func (r *PGCatalogRepository) CreateAmenityType(ctx context.Context, t *domain.AmenityType) error {
	if _, err := conn(ctx, r.db).Exec(ctx, `INSERT INTO amenity_types (id, name) VALUES ($1, $2)`, t.ID, t.Name); err != nil {
		if isUniqueViolation(err) {
			return domain.NewValidationError("amenity type %q already exists", t.Name)
		}
		return fmt.Errorf("create amenity type: %w", err)
	}
	return nil
}

func (r *PGCatalogRepository) ListAmenityTypes(ctx context.Context) ([]domain.AmenityType, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `SELECT id, name FROM amenity_types ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list amenity types: %w", err)
	}
	defer rows.Close()

	types := make([]domain.AmenityType, 0)
	for rows.Next() {
		var t domain.AmenityType
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

func (r *PGCatalogRepository) CreateAmenity(ctx context.Context, a *domain.Amenity) error {
	_, err := conn(ctx, r.db).Exec(ctx, `INSERT INTO amenities (id, name, type_id, capacity, state, product_ref, list_price)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7::numeric)`,
		a.ID, a.Name, a.TypeID, a.Capacity, a.State, a.Catalog.ProductRef, a.Catalog.ListPrice.String())
	if err != nil {
		return fmt.Errorf("create amenity: %w", err)
	}
	return nil
}

const amenityColumns = `id, name, COALESCE(type_id, ''), capacity, state, product_ref, list_price::text`

func scanAmenity(row pgx.Row) (domain.Amenity, error) {
	var a domain.Amenity
	var price string
	if err := row.Scan(&a.ID, &a.Name, &a.TypeID, &a.Capacity, &a.State, &a.Catalog.ProductRef, &price); err != nil {
		return domain.Amenity{}, err
	}
	p, err := parsePrice(price)
	if err != nil {
		return domain.Amenity{}, err
	}
	a.Catalog.ListPrice = p
	return a, nil
}

func (r *PGCatalogRepository) GetAmenity(ctx context.Context, id string) (*domain.Amenity, error) {
	a, err := scanAmenity(conn(ctx, r.db).QueryRow(ctx, `SELECT `+amenityColumns+` FROM amenities WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err, domain.ErrAmenityNotFound)
	}
	return &a, nil
}

func (r *PGCatalogRepository) ListAmenities(ctx context.Context) ([]domain.Amenity, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `SELECT `+amenityColumns+` FROM amenities ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list amenities: %w", err)
	}
	defer rows.Close()

	amenities := make([]domain.Amenity, 0)
	for rows.Next() {
		a, err := scanAmenity(rows)
		if err != nil {
			return nil, err
		}
		amenities = append(amenities, a)
	}
	return amenities, rows.Err()
}

func (r *PGCatalogRepository) SetAmenityState(ctx context.Context, id string, state domain.AmenityState) error {
	res, err := conn(ctx, r.db).Exec(ctx, `UPDATE amenities SET state=$1 WHERE id=$2`, state, id)
	if err != nil {
		return fmt.Errorf("set amenity state: %w", err)
	}
	if res.RowsAffected() == 0 {
		return domain.ErrAmenityNotFound
	}
	return nil
}

var _ CatalogRepository = (*PGCatalogRepository)(nil)
