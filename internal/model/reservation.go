package model

import "time"

// Reservation statuses.  CONFIRMED is the only non-terminal state;
// ATTENDED, NO_SHOW and CANCELLED are all terminal and no transition
// ever re-enters CONFIRMED.
const (
	StatusConfirmed = "CONFIRMED"
	StatusAttended  = "ATTENDED"
	StatusNoShow    = "NO_SHOW"
	StatusCancelled = "CANCELLED"
)

// HoldingStatus reports whether a reservation in the given status still
// occupies one unit of slot capacity.  CONFIRMED and ATTENDED hold
// capacity; NO_SHOW and CANCELLED release it.
func HoldingStatus(status string) bool {
	return status == StatusConfirmed || status == StatusAttended
}

// Reservation is one member's booking of one facility slot on one
// calendar date.  Rows are never deleted; cancelled and no-show
// reservations are retained for audit and ledger traceability.
//
// Fields:
//  ID            – primary key identifier.
//  MemberID      – member who holds the reservation.
//  FacilityID    – reserved facility.
//  SlotID        – reserved recurring slot.
//  Date          – calendar date, normalized to midnight UTC.
//  Status        – CONFIRMED, ATTENDED, NO_SHOW or CANCELLED.
//  LedgerEntryID – ledger entry debited at creation (nil when the
//                  facility is credit-free).
//  CreatedAt     – creation timestamp.
//  CancelledAt   – cancellation timestamp (nil unless CANCELLED).
//  AttendedAt    – attendance-marking timestamp (nil unless ATTENDED
//                  or NO_SHOW).
//  CancelledBy   – actor who cancelled ("member:<id>" or "staff:<id>").
//  CancelReason  – optional free-text cancellation reason.
type Reservation struct {
	ID            uint64     // reservations.id
	MemberID      uint64     // reservations.member_id
	FacilityID    uint64     // reservations.facility_id
	SlotID        uint64     // reservations.slot_id
	Date          time.Time  // reservations.date
	Status        string     // reservations.status
	LedgerEntryID *uint64    // reservations.ledger_entry_id (nullable)
	CreatedAt     time.Time  // reservations.created_at
	CancelledAt   *time.Time // reservations.cancelled_at (nullable)
	AttendedAt    *time.Time // reservations.attended_at (nullable)
	CancelledBy   *string    // reservations.cancelled_by (nullable)
	CancelReason  *string    // reservations.cancel_reason (nullable)
}

// Holding reports whether the reservation currently occupies capacity.
func (r *Reservation) Holding() bool { return HoldingStatus(r.Status) }
