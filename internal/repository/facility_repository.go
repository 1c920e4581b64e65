package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/telmaron/clubbook/internal/model"
)

// FacilityRepo reads facility and recurring-slot rows.  The catalog is
// read-mostly: facility management happens elsewhere, the reservation
// engine only resolves and locks rows.
type FacilityRepo struct {
	db *sql.DB
}

// NewFacilityRepo returns a FacilityRepo bound to the given database.
func NewFacilityRepo(db *sql.DB) *FacilityRepo { return &FacilityRepo{db: db} }

const facilityColumns = `id, name, max_capacity, is_active, COALESCE(linked_benefit_name, ''), created_at, updated_at`

func scanFacility(row *sql.Row) (*model.Facility, error) {
	var f model.Facility
	err := row.Scan(&f.ID, &f.Name, &f.MaxCapacity, &f.IsActive, &f.LinkedBenefitName, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, asStoreErr(err)
	}
	return &f, nil
}

// GetByID loads a facility outside any transaction.  Used by the query
// layer only; never to gate a write.
func (r *FacilityRepo) GetByID(ctx context.Context, id uint64) (*model.Facility, error) {
	const q = `SELECT ` + facilityColumns + ` FROM facilities WHERE id = ?`
	return scanFacility(r.db.QueryRowContext(ctx, q, id))
}

// GetByIDTx loads a facility inside a transaction.  With forUpdate set
// it appends FOR UPDATE, taking the row lock that serializes all
// capacity checks for this facility until the transaction ends.
func (r *FacilityRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64, forUpdate bool) (*model.Facility, error) {
	q := `SELECT ` + facilityColumns + ` FROM facilities WHERE id = ?`
	if forUpdate {
		q += ` FOR UPDATE`
	}
	return scanFacility(tx.QueryRowContext(ctx, q, id))
}

// SlotByIDTx loads a recurring slot inside a transaction.  No lock is
// needed: slots carry no mutable capacity state.
func (r *FacilityRepo) SlotByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.FacilitySlot, error) {
	const q = `SELECT id, facility_id, day_of_week, start_time, end_time, is_active
	           FROM facility_slots WHERE id = ?`
	var s model.FacilitySlot
	var dow int
	err := tx.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.FacilityID, &dow, &s.StartTime, &s.EndTime, &s.IsActive)
	if err != nil {
		return nil, asStoreErr(err)
	}
	s.DayOfWeek = time.Weekday(dow)
	return &s, nil
}

// ActiveSlots returns the facility's active slots ordered by weekday
// and start time for deterministic availability listings.
func (r *FacilityRepo) ActiveSlots(ctx context.Context, facilityID uint64) ([]model.FacilitySlot, error) {
	const q = `SELECT id, facility_id, day_of_week, start_time, end_time, is_active
	           FROM facility_slots
	           WHERE facility_id = ? AND is_active = 1
	           ORDER BY day_of_week, start_time`
	rows, err := r.db.QueryContext(ctx, q, facilityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	slots := make([]model.FacilitySlot, 0)
	for rows.Next() {
		var s model.FacilitySlot
		var dow int
		if err := rows.Scan(&s.ID, &s.FacilityID, &dow, &s.StartTime, &s.EndTime, &s.IsActive); err != nil {
			return nil, err
		}
		s.DayOfWeek = time.Weekday(dow)
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return slots, nil
}
