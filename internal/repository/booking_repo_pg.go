package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/paintballpark/internal/domain"
	"github.com/Domenick1991/paintballpark/internal/interval"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, zone_id, check_in, check_out, source, status, owner_kind, owner_id, created_at, updated_at`

func scanBooking(row pgx.Row) (domain.BookingInterval, error) {
	var b domain.BookingInterval
	err := row.Scan(&b.ID, &b.ZoneID, &b.CheckIn, &b.CheckOut, &b.Source, &b.Status, &b.Owner.Kind, &b.Owner.ID, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func (r *PGBookingRepository) Insert(ctx context.Context, b *domain.BookingInterval) error {
	err := conn(ctx, r.db).QueryRow(ctx, `INSERT INTO bookings (id, zone_id, check_in, check_out, source, status, owner_kind, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		b.ID, b.ZoneID, b.CheckIn, b.CheckOut, b.Source, b.Status, b.Owner.Kind, b.Owner.ID).
		Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id string) (*domain.BookingInterval, error) {
	b, err := scanBooking(conn(ctx, r.db).QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err, domain.ErrBookingNotFound)
	}
	return &b, nil
}

func (r *PGBookingRepository) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error {
	res, err := conn(ctx, r.db).Exec(ctx, `UPDATE bookings SET status=$1, updated_at=now() WHERE id=$2`, status, id)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	if res.RowsAffected() == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

func (r *PGBookingRepository) ListAssignedOverlapping(ctx context.Context, zoneID string, iv interval.Interval) ([]domain.BookingInterval, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE zone_id=$1 AND status=$2 AND check_in <= $4 AND check_out >= $3
		ORDER BY check_in`, zoneID, domain.BookingAssigned, iv.Start, iv.End)
}

func (r *PGBookingRepository) ListAssignedCovering(ctx context.Context, zoneID string, at time.Time) ([]domain.BookingInterval, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE zone_id=$1 AND status=$2 AND check_in <= $3 AND check_out >= $3
		ORDER BY check_in`, zoneID, domain.BookingAssigned, at)
}

func (r *PGBookingRepository) ListByOwner(ctx context.Context, owner domain.Owner) ([]domain.BookingInterval, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE owner_kind=$1 AND owner_id=$2
		ORDER BY zone_id, check_in`, owner.Kind, owner.ID)
}

func (r *PGBookingRepository) ListAssignedBetween(ctx context.Context, from, to time.Time) ([]domain.BookingInterval, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE status=$1 AND check_in <= $3 AND check_out >= $2
		ORDER BY zone_id, check_in`, domain.BookingAssigned, from, to)
}

func (r *PGBookingRepository) CountAssignedByZone(ctx context.Context, zoneID string) (int, error) {
	var n int
	if err := conn(ctx, r.db).QueryRow(ctx, `SELECT count(*) FROM bookings WHERE zone_id=$1 AND status=$2`, zoneID, domain.BookingAssigned).Scan(&n); err != nil {
		return 0, fmt.Errorf("count bookings: %w", err)
	}
	return n, nil
}

func (r *PGBookingRepository) list(ctx context.Context, query string, args ...any) ([]domain.BookingInterval, error) {
	rows, err := conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]domain.BookingInterval, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

var _ BookingRepository = (*PGBookingRepository)(nil)
