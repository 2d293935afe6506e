package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/paintballpark/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGReservationRepository struct {
	db *pgxpool.Pool
}

func NewReservationRepository(db *pgxpool.Pool) ReservationRepository {
	return &PGReservationRepository{db: db}
}

const reservationColumns = `id, number, guest_id, guest_email, check_in, check_out, adults, children, state, ordered_at, created_at, updated_at`

func scanReservation(row pgx.Row) (domain.Reservation, error) {
	var r domain.Reservation
	err := row.Scan(&r.ID, &r.Number, &r.GuestID, &r.GuestEmail, &r.CheckIn, &r.CheckOut, &r.Adults, &r.Children, &r.State, &r.OrderedAt, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (r *PGReservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	q := conn(ctx, r.db)
	err := q.QueryRow(ctx, `INSERT INTO reservations (id, number, guest_id, guest_email, check_in, check_out, adults, children, state, ordered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`,
		res.ID, res.Number, res.GuestID, res.GuestEmail, res.CheckIn, res.CheckOut, res.Adults, res.Children, res.State, res.OrderedAt).
		Scan(&res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewValidationError("reservation number %s already used", res.Number)
		}
		return fmt.Errorf("create reservation: %w", err)
	}
	return insertLines(ctx, q, res.ID, res.Lines)
}

func insertLines(ctx context.Context, q querier, reservationID string, lines []domain.ReservationLine) error {
	for i, l := range lines {
		if _, err := q.Exec(ctx, `INSERT INTO reservation_lines (id, reservation_id, position, name, category_id, zone_ids)
			VALUES ($1, $2, $3, $4, $5, $6)`, l.ID, reservationID, i, l.Name, l.CategoryID, l.ZoneIDs); err != nil {
			return fmt.Errorf("insert reservation line: %w", err)
		}
	}
	return nil
}

func (r *PGReservationRepository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	q := conn(ctx, r.db)
	res, err := scanReservation(q.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err, domain.ErrReservationNotFound)
	}
	if err := loadDetails(ctx, q, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func loadDetails(ctx context.Context, q querier, res *domain.Reservation) error {
	rows, err := q.Query(ctx, `SELECT id, name, category_id, zone_ids FROM reservation_lines WHERE reservation_id=$1 ORDER BY position`, res.ID)
	if err != nil {
		return fmt.Errorf("load reservation lines: %w", err)
	}
	res.Lines = make([]domain.ReservationLine, 0)
	for rows.Next() {
		var l domain.ReservationLine
		if err := rows.Scan(&l.ID, &l.Name, &l.CategoryID, &l.ZoneIDs); err != nil {
			rows.Close()
			return err
		}
		res.Lines = append(res.Lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	folios, err := q.Query(ctx, `SELECT id FROM folios WHERE reservation_id=$1 ORDER BY created_at`, res.ID)
	if err != nil {
		return fmt.Errorf("load reservation folios: %w", err)
	}
	defer folios.Close()
	res.FolioIDs = make([]string, 0)
	for folios.Next() {
		var id string
		if err := folios.Scan(&id); err != nil {
			return err
		}
		res.FolioIDs = append(res.FolioIDs, id)
	}
	return folios.Err()
}

func (r *PGReservationRepository) Update(ctx context.Context, res *domain.Reservation) error {
	q := conn(ctx, r.db)
	err := q.QueryRow(ctx, `UPDATE reservations SET guest_id=$1, guest_email=$2, check_in=$3, check_out=$4, adults=$5, children=$6, updated_at=now()
		WHERE id=$7 RETURNING updated_at`,
		res.GuestID, res.GuestEmail, res.CheckIn, res.CheckOut, res.Adults, res.Children, res.ID).Scan(&res.UpdatedAt)
	if err != nil {
		return notFound(err, domain.ErrReservationNotFound)
	}
	if _, err := q.Exec(ctx, `DELETE FROM reservation_lines WHERE reservation_id=$1`, res.ID); err != nil {
		return fmt.Errorf("replace reservation lines: %w", err)
	}
	return insertLines(ctx, q, res.ID, res.Lines)
}

func (r *PGReservationRepository) UpdateState(ctx context.Context, id string, state domain.ReservationState) error {
	res, err := conn(ctx, r.db).Exec(ctx, `UPDATE reservations SET state=$1, updated_at=now() WHERE id=$2`, state, id)
	if err != nil {
		return fmt.Errorf("update reservation state: %w", err)
	}
	if res.RowsAffected() == 0 {
		return domain.ErrReservationNotFound
	}
	return nil
}

// Delete removes the reservation; its lines go with it through ON DELETE CASCADE.
func (r *PGReservationRepository) Delete(ctx context.Context, id string) error {
	res, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM reservations WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	if res.RowsAffected() == 0 {
		return domain.ErrReservationNotFound
	}
	return nil
}

func (r *PGReservationRepository) ListByState(ctx context.Context, state domain.ReservationState) ([]domain.Reservation, error) {
	return r.list(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE state=$1 ORDER BY check_in`, state)
}

func (r *PGReservationRepository) ListCheckInBetween(ctx context.Context, from, to time.Time) ([]domain.Reservation, error) {
	return r.list(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE check_in >= $1 AND check_in <= $2 ORDER BY check_in`, from, to)
}

func (r *PGReservationRepository) ListCheckOutBetween(ctx context.Context, from, to time.Time) ([]domain.Reservation, error) {
	return r.list(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE check_out >= $1 AND check_out <= $2 ORDER BY check_out`, from, to)
}

func (r *PGReservationRepository) ListWithin(ctx context.Context, from, to time.Time) ([]domain.Reservation, error) {
	return r.list(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE check_in >= $1 AND check_out <= $2 ORDER BY check_in`, from, to)
}

func (r *PGReservationRepository) list(ctx context.Context, query string, args ...any) ([]domain.Reservation, error) {
	q := conn(ctx, r.db)
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	reservations := make([]domain.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		reservations = append(reservations, res)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Lines are loaded after the cursor is closed; a tx connection serves one query at a time.
	for i := range reservations {
		if err := loadDetails(ctx, q, &reservations[i]); err != nil {
			return nil, err
		}
	}
	return reservations, nil
}

var _ ReservationRepository = (*PGReservationRepository)(nil)
