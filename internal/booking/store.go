package booking

import (
	"context"
	"errors"
	"time"

	"github.com/telmaron/clubbook/internal/model"
)

// Sentinel errors shared between the engine and Store implementations.
// Implementations translate their own not-found signals (for example
// sql.ErrNoRows) into ErrNotFound so the engine can map them to domain
// kinds without knowing the backend.
var (
	// ErrNotFound is returned by lookups when no matching row exists.
	ErrNotFound = errors.New("not found")
	// ErrInsufficient is returned by DebitLedgerEntry when the guarded
	// update finds fewer credits than requested.  It backstops the
	// engine's own balance check in case the balance moved between the
	// locked read and the write.
	ErrInsufficient = errors.New("insufficient credits")
)

// Store is the persistence seam the engine runs against.  The methods
// declared directly on Store are read-only and may serve slightly stale
// data; they are used by the query layer and must never gate a write.
// All mutation happens inside WithinTx.
type Store interface {
	// WithinTx runs fn as one atomic unit.  When fn returns an error
	// the unit is rolled back and the error is returned unchanged;
	// otherwise the unit commits.  Conflicting units may block each
	// other; the caller sees one blocking call with no partial result.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error

	// FacilityByID returns the facility regardless of its active flag,
	// or ErrNotFound.
	FacilityByID(ctx context.Context, id uint64) (*model.Facility, error)

	// ActiveSlotsByFacility returns the facility's active recurring
	// slots ordered by day-of-week and start time.
	ActiveSlotsByFacility(ctx context.Context, facilityID uint64) ([]model.FacilitySlot, error)

	// CountHolding counts reservations in a holding status for the
	// (facility, slot, date) tuple.  Informational only.
	CountHolding(ctx context.Context, facilityID, slotID uint64, date time.Time) (int, error)

	// MemberReservations lists a member's reservations newest first,
	// optionally filtered by status, capped at limit rows.
	MemberReservations(ctx context.Context, memberID uint64, status string, limit int) ([]ReservationSummary, error)

	// ReservationsForRange lists reservations whose date falls in
	// [from, to] for the staff calendar.  An empty facilityIDs slice
	// means all facilities.
	ReservationsForRange(ctx context.Context, facilityIDs []uint64, from, to time.Time) ([]CalendarEntry, error)
}

// Tx is the transactional view handed to WithinTx callbacks.  The
// ...ForUpdate methods take row locks that are held until the unit
// commits or rolls back; they are the mechanism that serializes
// concurrent writers racing for the same slot or ledger entry.
type Tx interface {
	MemberByID(ctx context.Context, id uint64) (*model.Member, error)

	// ActiveSubscriptionPeriod resolves the member's authoritative
	// ACTIVE period (the most-recently-ending one when several exist).
	// ErrNotFound when the member has no ACTIVE period.
	ActiveSubscriptionPeriod(ctx context.Context, memberID uint64) (*model.SubscriptionPeriod, error)

	// LedgerEntryForUpdate locks and returns the period's ledger entry
	// whose benefit name matches benefit case-insensitively.
	LedgerEntryForUpdate(ctx context.Context, periodID uint64, benefit string) (*model.BenefitLedgerEntry, error)

	// DebitLedgerEntry atomically moves amount credits from remaining
	// to used.  ErrInsufficient when remaining < amount.
	DebitLedgerEntry(ctx context.Context, entryID uint64, amount uint32) (*model.BenefitLedgerEntry, error)

	// CreditLedgerEntry atomically moves amount credits from used back
	// to remaining, clamped so neither field leaves [0, allocated].
	CreditLedgerEntry(ctx context.Context, entryID uint64, amount uint32) (*model.BenefitLedgerEntry, error)

	FacilityByID(ctx context.Context, id uint64) (*model.Facility, error)

	// FacilityByIDForUpdate locks the facility row.  Taking this lock
	// before CountHolding is what makes the capacity check safe: two
	// creators for the same facility serialize here, so the second one
	// re-reads a count that already includes the first one's insert.
	FacilityByIDForUpdate(ctx context.Context, id uint64) (*model.Facility, error)

	SlotByID(ctx context.Context, id uint64) (*model.FacilitySlot, error)

	// MemberHolds reports whether the member already has a reservation
	// in a holding status for the exact (facility, slot, date) tuple.
	MemberHolds(ctx context.Context, memberID, facilityID, slotID uint64, date time.Time) (bool, error)

	CountHolding(ctx context.Context, facilityID, slotID uint64, date time.Time) (int, error)

	// InsertReservation persists a new reservation and fills in its
	// generated ID and CreatedAt.
	InsertReservation(ctx context.Context, r *model.Reservation) error

	// ReservationByIDForUpdate locks and returns the reservation so a
	// status transition and its ledger refund are decided against a
	// stable row.
	ReservationByIDForUpdate(ctx context.Context, id uint64) (*model.Reservation, error)

	// UpdateReservationStatus writes the reservation's status and
	// lifecycle timestamp/actor columns.
	UpdateReservationStatus(ctx context.Context, r *model.Reservation) error
}
