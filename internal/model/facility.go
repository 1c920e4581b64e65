package model

import "time"

// Facility is a capacity-limited bookable resource such as a pool lane,
// a studio or a massage room.  A facility with an empty
// LinkedBenefitName is credit-free: reservations against it never touch
// the entitlement ledger.
//
// Fields:
//  ID                – primary key identifier.
//  Name              – display name.
//  MaxCapacity       – hard ceiling on concurrent holders per slot/date.
//  IsActive          – inactive facilities are not bookable.
//  LinkedBenefitName – ledger benefit that gates access ("" = none).
//  CreatedAt         – creation timestamp.
//  UpdatedAt         – last update timestamp.
type Facility struct {
	ID                uint64    // facilities.id
	Name              string    // facilities.name
	MaxCapacity       uint32    // facilities.max_capacity
	IsActive          bool      // facilities.is_active
	LinkedBenefitName string    // facilities.linked_benefit_name ("" when null)
	CreatedAt         time.Time // facilities.created_at
	UpdatedAt         time.Time // facilities.updated_at
}

// FacilitySlot is a recurring weekly time window during which its
// facility can be reserved.  A slot carries no capacity state of its
// own; capacity is derived per concrete calendar date.
//
// Fields:
//  ID         – primary key identifier.
//  FacilityID – owning facility.
//  DayOfWeek  – weekday the slot recurs on (time.Weekday, Sunday = 0).
//  StartTime  – opening time in "15:04" wall-clock form.
//  EndTime    – closing time in "15:04" wall-clock form.
//  IsActive   – inactive slots are hidden and not bookable.
type FacilitySlot struct {
	ID         uint64       // facility_slots.id
	FacilityID uint64       // facility_slots.facility_id
	DayOfWeek  time.Weekday // facility_slots.day_of_week
	StartTime  string       // facility_slots.start_time
	EndTime    string       // facility_slots.end_time
	IsActive   bool         // facility_slots.is_active
}

// OccursOn reports whether the slot recurs on the weekday of the given
// calendar date.  The time-of-day portion of date is ignored.
func (s FacilitySlot) OccursOn(date time.Time) bool {
	return s.DayOfWeek == date.Weekday()
}

// DateOnly strips the time-of-day and offset from t, returning midnight
// UTC of the same calendar day.  Reservation dates are always stored in
// this normalized form so that tuple comparisons are exact.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
