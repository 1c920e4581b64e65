package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/telmaron/clubbook/internal/booking"
	"github.com/telmaron/clubbook/internal/model"
)

// ReservationRepo provides persistence for reservations.  Reservation
// rows are append-then-transition only: they are inserted CONFIRMED,
// moved to a terminal status by UpdateStatusTx, and never deleted.  All
// timestamps are stored in UTC; the date column is a plain DATE.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const dateFormat = "2006-01-02"

// holdingStatuses is the SQL fragment selecting capacity-holding rows.
const holdingStatuses = `('CONFIRMED','ATTENDED')`

// CreateTx inserts a new reservation within the reservation
// transaction and populates the generated ID and CreatedAt on the
// provided record.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations (member_id, facility_id, slot_id, date, status, ledger_entry_id)
	           VALUES (?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q,
		res.MemberID, res.FacilityID, res.SlotID, res.Date.Format(dateFormat), res.Status, res.LedgerEntryID,
	)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	// Query back the created_at default so the caller returns the row
	// exactly as persisted.
	const sel = `SELECT created_at FROM reservations WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, res.ID).Scan(&res.CreatedAt)
}

// GetByIDForUpdateTx locks and returns a reservation.  The lock holds
// until the transaction ends, making the status guard and any ledger
// refund a single serialized decision.
func (r *ReservationRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Reservation, error) {
	const q = `SELECT id, member_id, facility_id, slot_id, date, status, ledger_entry_id,
	                  created_at, cancelled_at, attended_at, cancelled_by, cancel_reason
	           FROM reservations WHERE id = ? FOR UPDATE`
	var res model.Reservation
	var ledgerID sql.NullInt64
	var cancelledAt, attendedAt sql.NullTime
	var cancelledBy, reason sql.NullString
	err := tx.QueryRowContext(ctx, q, id).Scan(
		&res.ID, &res.MemberID, &res.FacilityID, &res.SlotID, &res.Date, &res.Status, &ledgerID,
		&res.CreatedAt, &cancelledAt, &attendedAt, &cancelledBy, &reason,
	)
	if err != nil {
		return nil, asStoreErr(err)
	}
	if ledgerID.Valid {
		v := uint64(ledgerID.Int64)
		res.LedgerEntryID = &v
	}
	if cancelledAt.Valid {
		t := cancelledAt.Time
		res.CancelledAt = &t
	}
	if attendedAt.Valid {
		t := attendedAt.Time
		res.AttendedAt = &t
	}
	if cancelledBy.Valid {
		v := cancelledBy.String
		res.CancelledBy = &v
	}
	if reason.Valid {
		v := reason.String
		res.CancelReason = &v
	}
	return &res, nil
}

// UpdateStatusTx writes the status and lifecycle columns of a
// reservation previously locked by GetByIDForUpdateTx.
func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `UPDATE reservations
	           SET status = ?, cancelled_at = ?, attended_at = ?, cancelled_by = ?, cancel_reason = ?
	           WHERE id = ?`
	result, err := tx.ExecContext(ctx, q,
		res.Status, res.CancelledAt, res.AttendedAt, res.CancelledBy, res.CancelReason, res.ID,
	)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return booking.ErrNotFound
	}
	return nil
}

// MemberHoldsTx reports whether the member already holds the exact
// (facility, slot, date) tuple in a capacity-holding status.
func (r *ReservationRepo) MemberHoldsTx(ctx context.Context, tx *sql.Tx, memberID, facilityID, slotID uint64, date time.Time) (bool, error) {
	const q = `SELECT COUNT(*) FROM reservations
	           WHERE member_id = ? AND facility_id = ? AND slot_id = ? AND date = ?
	             AND status IN ` + holdingStatuses
	var n int
	err := tx.QueryRowContext(ctx, q, memberID, facilityID, slotID, date.Format(dateFormat)).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountHoldingTx counts capacity-holding reservations for the tuple
// inside the reservation transaction.  Callers must hold the facility
// row lock before trusting this count to gate an insert.
func (r *ReservationRepo) CountHoldingTx(ctx context.Context, tx *sql.Tx, facilityID, slotID uint64, date time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM reservations
	           WHERE facility_id = ? AND slot_id = ? AND date = ?
	             AND status IN ` + holdingStatuses
	var n int
	err := tx.QueryRowContext(ctx, q, facilityID, slotID, date.Format(dateFormat)).Scan(&n)
	return n, err
}

// CountHolding is the non-transactional variant used by the query
// layer.  The count may trail concurrent writers; it is display-only.
func (r *ReservationRepo) CountHolding(ctx context.Context, facilityID, slotID uint64, date time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM reservations
	           WHERE facility_id = ? AND slot_id = ? AND date = ?
	             AND status IN ` + holdingStatuses
	var n int
	err := r.db.QueryRowContext(ctx, q, facilityID, slotID, date.Format(dateFormat)).Scan(&n)
	return n, err
}

// ListByMember returns the member's reservations with facility and
// slot details, newest first.  status filters when non-empty.
func (r *ReservationRepo) ListByMember(ctx context.Context, memberID uint64, status string, limit int) ([]booking.ReservationSummary, error) {
	q := `SELECT r.id, r.facility_id, f.name, r.slot_id, r.date, s.start_time, s.end_time, r.status, r.created_at
	      FROM reservations r
	      JOIN facilities f ON f.id = r.facility_id
	      JOIN facility_slots s ON s.id = r.slot_id
	      WHERE r.member_id = ?`
	args := []interface{}{memberID}
	if status != "" {
		q += ` AND r.status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY r.date DESC, r.created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]booking.ReservationSummary, 0)
	for rows.Next() {
		var it booking.ReservationSummary
		var date time.Time
		if err := rows.Scan(&it.ID, &it.FacilityID, &it.FacilityName, &it.SlotID, &date,
			&it.StartTime, &it.EndTime, &it.Status, &it.CreatedAt); err != nil {
			return nil, err
		}
		it.Date = date.Format(dateFormat)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// ListForRange returns the staff calendar feed: every reservation
// dated within [from, to], member identity included.  An empty
// facilityIDs slice means all facilities.
func (r *ReservationRepo) ListForRange(ctx context.Context, facilityIDs []uint64, from, to time.Time) ([]booking.CalendarEntry, error) {
	q := `SELECT r.id, r.facility_id, f.name, r.slot_id, r.date, s.start_time, s.end_time, r.status,
	             m.id, m.full_name, m.email
	      FROM reservations r
	      JOIN facilities f ON f.id = r.facility_id
	      JOIN facility_slots s ON s.id = r.slot_id
	      JOIN members m ON m.id = r.member_id
	      WHERE r.date BETWEEN ? AND ?`
	args := []interface{}{from.Format(dateFormat), to.Format(dateFormat)}
	if len(facilityIDs) > 0 {
		placeholders := make([]string, len(facilityIDs))
		for i, id := range facilityIDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		q += ` AND r.facility_id IN (` + strings.Join(placeholders, ",") + `)`
	}
	q += ` ORDER BY r.date, s.start_time, r.id`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]booking.CalendarEntry, 0)
	for rows.Next() {
		var it booking.CalendarEntry
		var date time.Time
		if err := rows.Scan(&it.ReservationID, &it.FacilityID, &it.FacilityName, &it.SlotID, &date,
			&it.StartTime, &it.EndTime, &it.Status, &it.MemberID, &it.MemberName, &it.MemberEmail); err != nil {
			return nil, err
		}
		it.Date = date.Format(dateFormat)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
