package repository

import (
	"context"
	"fmt"

	"github.com/Domenick1991/paintballpark/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PGZoneRepository struct {
	db *pgxpool.Pool
}

func NewZoneRepository(db *pgxpool.Pool) ZoneRepository {
	return &PGZoneRepository{db: db}
}

const zoneColumns = `id, name, category_id, min_occupants, max_occupants, available, product_ref, list_price::text, created_at, updated_at`

func scanZone(row pgx.Row) (domain.Zone, error) {
	var z domain.Zone
	var price string
	if err := row.Scan(&z.ID, &z.Name, &z.CategoryID, &z.MinOccupants, &z.MaxOccupants, &z.Available, &z.Catalog.ProductRef, &price, &z.CreatedAt, &z.UpdatedAt); err != nil {
		return domain.Zone{}, err
	}
	p, err := decimal.NewFromString(price)
	if err != nil {
		return domain.Zone{}, fmt.Errorf("zone %s price: %w", z.ID, err)
	}
	z.Catalog.ListPrice = p
	return z, nil
}

func (r *PGZoneRepository) Create(ctx context.Context, zone *domain.Zone) error {
	err := conn(ctx, r.db).QueryRow(ctx, `INSERT INTO zones (id, name, category_id, min_occupants, max_occupants, available, product_ref, list_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric)
		RETURNING created_at, updated_at`,
		zone.ID, zone.Name, zone.CategoryID, zone.MinOccupants, zone.MaxOccupants, zone.Available, zone.Catalog.ProductRef, zone.Catalog.ListPrice.String()).
		Scan(&zone.CreatedAt, &zone.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewValidationError("zone %q already exists", zone.Name)
		}
		return fmt.Errorf("create zone: %w", err)
	}
	return nil
}

func (r *PGZoneRepository) GetByID(ctx context.Context, id string) (*domain.Zone, error) {
	z, err := scanZone(conn(ctx, r.db).QueryRow(ctx, `SELECT `+zoneColumns+` FROM zones WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err, domain.ErrZoneNotFound)
	}
	return &z, nil
}

func (r *PGZoneRepository) List(ctx context.Context) ([]domain.Zone, error) {
	return r.list(ctx, `SELECT `+zoneColumns+` FROM zones ORDER BY id`)
}

func (r *PGZoneRepository) ListByCategories(ctx context.Context, categoryIDs []string) ([]domain.Zone, error) {
	return r.list(ctx, `SELECT `+zoneColumns+` FROM zones WHERE category_id = ANY($1) ORDER BY id`, categoryIDs)
}

func (r *PGZoneRepository) list(ctx context.Context, query string, args ...any) ([]domain.Zone, error) {
	rows, err := conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list zones: %w", err)
	}
	defer rows.Close()

	zones := make([]domain.Zone, 0)
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

func (r *PGZoneRepository) SetAvailable(ctx context.Context, id string, available bool) error {
	res, err := conn(ctx, r.db).Exec(ctx, `UPDATE zones SET available=$1, updated_at=now() WHERE id=$2`, available, id)
	if err != nil {
		return fmt.Errorf("set zone availability: %w", err)
	}
	if res.RowsAffected() == 0 {
		return domain.ErrZoneNotFound
	}
	return nil
}

func (r *PGZoneRepository) Delete(ctx context.Context, id string) error {
	res, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM zones WHERE id=$1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.NewValidationError("zone %s is referenced by folio lines", id)
		}
		return fmt.Errorf("delete zone: %w", err)
	}
	if res.RowsAffected() == 0 {
		return domain.ErrZoneNotFound
	}
	return nil
}

func (r *PGZoneRepository) LockForUpdate(ctx context.Context, ids []string) error {
	rows, err := conn(ctx, r.db).Query(ctx, `SELECT id FROM zones WHERE id = ANY($1) ORDER BY id FOR UPDATE`, ids)
	if err != nil {
		return fmt.Errorf("lock zones: %w", err)
	}
	defer rows.Close()

	locked := 0
	for rows.Next() {
		locked++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("lock zones: %w", err)
	}
	if locked != len(ids) {
		return domain.ErrZoneNotFound
	}
	return nil
}

type PGCategoryRepository struct {
	db *pgxpool.Pool
}

func NewCategoryRepository(db *pgxpool.Pool) CategoryRepository {
	return &PGCategoryRepository{db: db}
}

func (r *PGCategoryRepository) Create(ctx context.Context, c domain.Category) error {
	_, err := conn(ctx, r.db).Exec(ctx, `INSERT INTO zone_categories (id, name, parent_id, path) VALUES ($1, $2, NULLIF($3, ''), $4)`,
		c.ID, c.Name, c.ParentID, c.Path)
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (r *PGCategoryRepository) Update(ctx context.Context, c domain.Category) error {
	res, err := conn(ctx, r.db).Exec(ctx, `UPDATE zone_categories SET name=$1, parent_id=NULLIF($2, ''), path=$3 WHERE id=$4`,
		c.Name, c.ParentID, c.Path, c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if res.RowsAffected() == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

func (r *PGCategoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `SELECT id, name, COALESCE(parent_id, ''), path FROM zone_categories ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]domain.Category, 0)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.ParentID, &c.Path); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

var (
	_ ZoneRepository     = (*PGZoneRepository)(nil)
	_ CategoryRepository = (*PGCategoryRepository)(nil)
)
