package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/venue-booking/internal/apperr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgUniqueViolation  = "23505"
	pgLockNotAvailable = "55P03"
)

// PgGuard keeps reservations in Postgres. Exclusivity comes from row locks
// on booking_cells, one row per (scope, date, hour), taken FOR UPDATE.
type PgGuard struct {
	DB          *pgxpool.Pool
	LockTimeout time.Duration
}

func (g *PgGuard) CheckReadOnly(ctx context.Context, cell Cell) (*Conflict, error) {
	var cf Conflict
	var status string
	err := g.DB.QueryRow(ctx, `
		SELECT id, booking_id, status FROM reservations
		WHERE scope_key=$1 AND booking_date=$2 AND hour=$3 AND status = ANY($4)
		LIMIT 1`, cell.ScopeKey, cell.Date, cell.Hour, activeStatuses).Scan(&cf.ReservationID, &cf.BookingID, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	cf.Cell = cell
	cf.Status = Status(status)
	return &cf, nil
}

// CheckAndReserve: lock every cell (FOR UPDATE) -> look for active rows ->
// insert the batch. Any conflict leaves nothing committed.
func (g *PgGuard) CheckAndReserve(ctx context.Context, batch []Reservation) error {
	if err := validateBatch(batch); err != nil {
		return err
	}
	tx, err := g.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if g.LockTimeout > 0 {
		if _, err := tx.Exec(ctx, `SELECT set_config('lock_timeout', $1, true)`,
			fmt.Sprintf("%dms", g.LockTimeout.Milliseconds())); err != nil {
			return err
		}
	}

	cells := sortedCells(batch)
	for _, c := range cells {
		if _, err := tx.Exec(ctx, `
			INSERT INTO booking_cells(scope_key, booking_date, hour)
			VALUES ($1,$2,$3)
			ON CONFLICT DO NOTHING`, c.ScopeKey, c.Date, c.Hour); err != nil {
			return mapPgErr(err)
		}
		if _, err := tx.Exec(ctx, `
			SELECT 1 FROM booking_cells
			WHERE scope_key=$1 AND booking_date=$2 AND hour=$3
			FOR UPDATE`, c.ScopeKey, c.Date, c.Hour); err != nil {
			return mapPgErr(err)
		}
	}

	var conflicts []Conflict
	for _, c := range cells {
		var cf Conflict
		var status string
		err := tx.QueryRow(ctx, `
			SELECT id, booking_id, status FROM reservations
			WHERE scope_key=$1 AND booking_date=$2 AND hour=$3 AND status = ANY($4)
			LIMIT 1`, c.ScopeKey, c.Date, c.Hour, activeStatuses).Scan(&cf.ReservationID, &cf.BookingID, &status)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return err
		}
		cf.Cell = c
		cf.Status = Status(status)
		conflicts = append(conflicts, cf)
	}
	if len(conflicts) > 0 {
		return conflictError(conflicts) // rollback via defer
	}

	for _, r := range batch {
		if _, err := tx.Exec(ctx, `
			INSERT INTO reservations(id, booking_id, scope_key, booking_date, hour, half, subject_id, status, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			r.ID, r.BookingID, r.Cell.ScopeKey, r.Cell.Date, r.Cell.Hour, r.Half, r.SubjectID, string(r.Status), r.CreatedAt,
		); err != nil {
			return mapPgErr(err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return mapPgErr(err)
	}
	return nil
}

func (g *PgGuard) ListByBooking(ctx context.Context, bookingID string) ([]Reservation, error) {
	rows, err := g.DB.Query(ctx, `
		SELECT id, booking_id, scope_key, booking_date, hour, half, subject_id, status, created_at
		FROM reservations WHERE booking_id=$1
		ORDER BY booking_date, hour`, bookingID)
	if err != nil {
		return nil, err
	}
	out, err := scanReservations(rows)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, apperr.ErrBookingNotFound.WithDetails("booking %s", bookingID)
	}
	return out, nil
}

// SetStatus moves every reservation of a booking to the given status in one
// transaction. The rows are locked first so concurrent transitions queue up.
func (g *PgGuard) SetStatus(ctx context.Context, bookingID string, to Status) ([]Reservation, error) {
	tx, err := g.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT id, booking_id, scope_key, booking_date, hour, half, subject_id, status, created_at
		FROM reservations WHERE booking_id=$1
		ORDER BY booking_date, hour
		FOR UPDATE`, bookingID)
	if err != nil {
		return nil, err
	}
	current, err := scanReservations(rows)
	if err != nil {
		return nil, err
	}
	if len(current) == 0 {
		return nil, apperr.ErrBookingNotFound.WithDetails("booking %s", bookingID)
	}
	for _, r := range current {
		if !CanTransition(r.Status, to) {
			return nil, apperr.ErrInvalidStatusTransition.WithDetails("%s -> %s", r.Status, to)
		}
	}
	if _, err := tx.Exec(ctx, `UPDATE reservations SET status=$2, updated_at=now() WHERE booking_id=$1`, bookingID, string(to)); err != nil {
		return nil, mapPgErr(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	for i := range current {
		current[i].Status = to
	}
	return current, nil
}

func scanReservations(rows pgx.Rows) ([]Reservation, error) {
	defer rows.Close()
	var out []Reservation
	for rows.Next() {
		var r Reservation
		var status string
		if err := rows.Scan(&r.ID, &r.BookingID, &r.Cell.ScopeKey, &r.Cell.Date, &r.Cell.Hour, &r.Half, &r.SubjectID, &status, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Status = Status(status)
		out = append(out, r)
	}
	return out, rows.Err()
}

// mapPgErr turns lock timeouts and the active-cell unique index into
// booking conflicts.
func mapPgErr(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return apperr.ErrBookingConflict.WithDetails("cell already reserved (%s)", pgErr.ConstraintName)
	case pgLockNotAvailable:
		return apperr.ErrBookingConflict.WithDetails("cell is being reserved by another request")
	}
	return err
}
