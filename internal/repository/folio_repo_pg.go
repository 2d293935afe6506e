package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/paintballpark/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PGFolioRepository struct {
	db *pgxpool.Pool
}

func NewFolioRepository(db *pgxpool.Pool) FolioRepository {
	return &PGFolioRepository{db: db}
}

const folioColumns = `id, number, guest_id, check_in, check_out, duration, COALESCE(reservation_id, ''), COALESCE(invoice_ref, ''), invoiced_at, created_at, updated_at`

func scanFolio(row pgx.Row) (domain.Folio, error) {
	var f domain.Folio
	var invoicedAt *time.Time
	if err := row.Scan(&f.ID, &f.Number, &f.GuestID, &f.CheckIn, &f.CheckOut, &f.Duration, &f.ReservationID, &f.Order.InvoiceRef, &invoicedAt, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return domain.Folio{}, err
	}
	if invoicedAt != nil {
		f.Order.InvoicedAt = *invoicedAt
	}
	return f, nil
}

func (r *PGFolioRepository) Create(ctx context.Context, f *domain.Folio) error {
	q := conn(ctx, r.db)
	err := q.QueryRow(ctx, `INSERT INTO folios (id, number, guest_id, check_in, check_out, duration, reservation_id)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
		RETURNING created_at, updated_at`,
		f.ID, f.Number, f.GuestID, f.CheckIn, f.CheckOut, f.Duration, f.ReservationID).
		Scan(&f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewValidationError("folio number %s already used", f.Number)
		}
		return fmt.Errorf("create folio: %w", err)
	}
	for _, l := range f.Lines {
		if _, err := q.Exec(ctx, `INSERT INTO folio_lines (id, folio_id, zone_id, check_in, check_out, quantity, unit_price, is_reserved, booking_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8, NULLIF($9, ''))`,
			l.ID, f.ID, l.ZoneID, l.CheckIn, l.CheckOut, l.Quantity, l.UnitPrice.String(), l.IsReserved, l.BookingID); err != nil {
			return fmt.Errorf("insert folio line: %w", err)
		}
	}
	for _, l := range f.ServiceLines {
		if err := r.AddServiceLine(ctx, f.ID, l); err != nil {
			return err
		}
	}
	return nil
}

func (r *PGFolioRepository) GetByID(ctx context.Context, id string) (*domain.Folio, error) {
	q := conn(ctx, r.db)
	f, err := scanFolio(q.QueryRow(ctx, `SELECT `+folioColumns+` FROM folios WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err, domain.ErrFolioNotFound)
	}
	if err := loadFolioLines(ctx, q, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func loadFolioLines(ctx context.Context, q querier, f *domain.Folio) error {
	rows, err := q.Query(ctx, `SELECT id, zone_id, check_in, check_out, quantity, unit_price::text, is_reserved, COALESCE(booking_id, '')
		FROM folio_lines WHERE folio_id=$1 ORDER BY check_in, zone_id`, f.ID)
	if err != nil {
		return fmt.Errorf("load folio lines: %w", err)
	}
	f.Lines = make([]domain.FolioLine, 0)
	for rows.Next() {
		var l domain.FolioLine
		var price string
		if err := rows.Scan(&l.ID, &l.ZoneID, &l.CheckIn, &l.CheckOut, &l.Quantity, &price, &l.IsReserved, &l.BookingID); err != nil {
			rows.Close()
			return err
		}
		if l.UnitPrice, err = decimal.NewFromString(price); err != nil {
			rows.Close()
			return fmt.Errorf("folio line %s price: %w", l.ID, err)
		}
		f.Lines = append(f.Lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	services, err := q.Query(ctx, `SELECT id, service_id, name, quantity, unit_price::text FROM folio_service_lines WHERE folio_id=$1 ORDER BY created_at`, f.ID)
	if err != nil {
		return fmt.Errorf("load folio service lines: %w", err)
	}
	defer services.Close()
	f.ServiceLines = make([]domain.ServiceLine, 0)
	for services.Next() {
		var l domain.ServiceLine
		var price string
		if err := services.Scan(&l.ID, &l.ServiceID, &l.Name, &l.Quantity, &price); err != nil {
			return err
		}
		if l.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return fmt.Errorf("service line %s price: %w", l.ID, err)
		}
		f.ServiceLines = append(f.ServiceLines, l)
	}
	return services.Err()
}

func (r *PGFolioRepository) ListByReservation(ctx context.Context, reservationID string) ([]domain.Folio, error) {
	q := conn(ctx, r.db)
	rows, err := q.Query(ctx, `SELECT `+folioColumns+` FROM folios WHERE reservation_id=$1 ORDER BY created_at`, reservationID)
	if err != nil {
		return nil, fmt.Errorf("list folios: %w", err)
	}
	folios := make([]domain.Folio, 0)
	for rows.Next() {
		f, err := scanFolio(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		folios = append(folios, f)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range folios {
		if err := loadFolioLines(ctx, q, &folios[i]); err != nil {
			return nil, err
		}
	}
	return folios, nil
}

func (r *PGFolioRepository) Delete(ctx context.Context, id string) error {
	res, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM folios WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete folio: %w", err)
	}
	if res.RowsAffected() == 0 {
		return domain.ErrFolioNotFound
	}
	return nil
}

func (r *PGFolioRepository) DeleteLine(ctx context.Context, folioID, lineID string) error {
	res, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM folio_lines WHERE folio_id=$1 AND id=$2`, folioID, lineID)
	if err != nil {
		return fmt.Errorf("delete folio line: %w", err)
	}
	if res.RowsAffected() == 0 {
		return domain.ErrFolioNotFound
	}
	return nil
}

func (r *PGFolioRepository) AddServiceLine(ctx context.Context, folioID string, l domain.ServiceLine) error {
	_, err := conn(ctx, r.db).Exec(ctx, `INSERT INTO folio_service_lines (id, folio_id, service_id, name, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5, $6::numeric)`, l.ID, folioID, l.ServiceID, l.Name, l.Quantity, l.UnitPrice.String())
	if err != nil {
		return fmt.Errorf("insert service line: %w", err)
	}
	return nil
}

func (r *PGFolioRepository) SetOrder(ctx context.Context, folioID string, order domain.OrderRef) error {
	res, err := conn(ctx, r.db).Exec(ctx, `UPDATE folios SET invoice_ref=$1, invoiced_at=$2, updated_at=now() WHERE id=$3`,
		order.InvoiceRef, order.InvoicedAt, folioID)
	if err != nil {
		return fmt.Errorf("set folio order: %w", err)
	}
	if res.RowsAffected() == 0 {
		return domain.ErrFolioNotFound
	}
	return nil
}

var _ FolioRepository = (*PGFolioRepository)(nil)
