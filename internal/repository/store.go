// Package repository implements the booking store on MySQL.  Each
// repository wraps a table family; Store composes them behind the
// booking.Store seam and owns the transaction discipline: one
// BeginTx/commit per atomic unit, rollback on any error, row locks via
// SELECT ... FOR UPDATE inside the unit.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/telmaron/clubbook/internal/booking"
	"github.com/telmaron/clubbook/internal/model"
)

// Store implements booking.Store against a MySQL database.
type Store struct {
	db           *sql.DB
	members      *MemberRepo
	facilities   *FacilityRepo
	ledger       *LedgerRepo
	reservations *ReservationRepo
}

// NewStore constructs a Store and its per-table repositories bound to
// the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:           db,
		members:      NewMemberRepo(db),
		facilities:   NewFacilityRepo(db),
		ledger:       NewLedgerRepo(db),
		reservations: NewReservationRepo(db),
	}
}

// WithinTx runs fn inside one database transaction.  The deferred
// rollback is a no-op after a successful commit; on any error the
// transaction rolls back and fn's error is returned unchanged so the
// engine's domain kinds survive the trip.
func (s *Store) WithinTx(ctx context.Context, fn func(tx booking.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&storeTx{s: s, tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *Store) FacilityByID(ctx context.Context, id uint64) (*model.Facility, error) {
	return s.facilities.GetByID(ctx, id)
}

func (s *Store) ActiveSlotsByFacility(ctx context.Context, facilityID uint64) ([]model.FacilitySlot, error) {
	return s.facilities.ActiveSlots(ctx, facilityID)
}

func (s *Store) CountHolding(ctx context.Context, facilityID, slotID uint64, date time.Time) (int, error) {
	return s.reservations.CountHolding(ctx, facilityID, slotID, date)
}

func (s *Store) MemberReservations(ctx context.Context, memberID uint64, status string, limit int) ([]booking.ReservationSummary, error) {
	return s.reservations.ListByMember(ctx, memberID, status, limit)
}

func (s *Store) ReservationsForRange(ctx context.Context, facilityIDs []uint64, from, to time.Time) ([]booking.CalendarEntry, error) {
	return s.reservations.ListForRange(ctx, facilityIDs, from, to)
}

// storeTx adapts one *sql.Tx to the booking.Tx interface by delegating
// to the repositories' ...Tx methods.
type storeTx struct {
	s  *Store
	tx *sql.Tx
}

func (t *storeTx) MemberByID(ctx context.Context, id uint64) (*model.Member, error) {
	return t.s.members.GetByIDTx(ctx, t.tx, id)
}

func (t *storeTx) ActiveSubscriptionPeriod(ctx context.Context, memberID uint64) (*model.SubscriptionPeriod, error) {
	return t.s.members.ActivePeriodTx(ctx, t.tx, memberID)
}

func (t *storeTx) LedgerEntryForUpdate(ctx context.Context, periodID uint64, benefit string) (*model.BenefitLedgerEntry, error) {
	return t.s.ledger.EntryForBenefitForUpdateTx(ctx, t.tx, periodID, benefit)
}

func (t *storeTx) DebitLedgerEntry(ctx context.Context, entryID uint64, amount uint32) (*model.BenefitLedgerEntry, error) {
	return t.s.ledger.DebitTx(ctx, t.tx, entryID, amount)
}

func (t *storeTx) CreditLedgerEntry(ctx context.Context, entryID uint64, amount uint32) (*model.BenefitLedgerEntry, error) {
	return t.s.ledger.CreditTx(ctx, t.tx, entryID, amount)
}

func (t *storeTx) FacilityByID(ctx context.Context, id uint64) (*model.Facility, error) {
	return t.s.facilities.GetByIDTx(ctx, t.tx, id, false)
}

func (t *storeTx) FacilityByIDForUpdate(ctx context.Context, id uint64) (*model.Facility, error) {
	return t.s.facilities.GetByIDTx(ctx, t.tx, id, true)
}

func (t *storeTx) SlotByID(ctx context.Context, id uint64) (*model.FacilitySlot, error) {
	return t.s.facilities.SlotByIDTx(ctx, t.tx, id)
}

func (t *storeTx) MemberHolds(ctx context.Context, memberID, facilityID, slotID uint64, date time.Time) (bool, error) {
	return t.s.reservations.MemberHoldsTx(ctx, t.tx, memberID, facilityID, slotID, date)
}

func (t *storeTx) CountHolding(ctx context.Context, facilityID, slotID uint64, date time.Time) (int, error) {
	return t.s.reservations.CountHoldingTx(ctx, t.tx, facilityID, slotID, date)
}

func (t *storeTx) InsertReservation(ctx context.Context, r *model.Reservation) error {
	return t.s.reservations.CreateTx(ctx, t.tx, r)
}

func (t *storeTx) ReservationByIDForUpdate(ctx context.Context, id uint64) (*model.Reservation, error) {
	return t.s.reservations.GetByIDForUpdateTx(ctx, t.tx, id)
}

func (t *storeTx) UpdateReservationStatus(ctx context.Context, r *model.Reservation) error {
	return t.s.reservations.UpdateStatusTx(ctx, t.tx, r)
}

// asStoreErr translates driver-level not-found signals into the
// booking sentinel so the engine never sees sql.ErrNoRows.
func asStoreErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return booking.ErrNotFound
	}
	return err
}
