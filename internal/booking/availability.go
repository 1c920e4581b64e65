package booking

import (
	"context"
	"errors"
	"time"

	"github.com/telmaron/clubbook/internal/model"
)

// Default and maximum page sizes for member reservation listings.
const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// SlotAvailability is one row of the per-date availability view.  The
// counts come from non-transactional reads and may trail a concurrent
// booking by a moment; the authoritative check happens inside Create.
type SlotAvailability struct {
	SlotID         uint64 `json:"slot_id"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	BookedCount    int    `json:"booked_count"`
	AvailableSpots int    `json:"available_spots"`
	IsFull         bool   `json:"is_full"`
}

// ReservationSummary is the member-facing listing row.
type ReservationSummary struct {
	ID           uint64    `json:"id"`
	FacilityID   uint64    `json:"facility_id"`
	FacilityName string    `json:"facility_name"`
	SlotID       uint64    `json:"slot_id"`
	Date         string    `json:"date"`
	StartTime    string    `json:"start_time"`
	EndTime      string    `json:"end_time"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// CalendarEntry is the staff-facing calendar row; unlike the member
// view it includes the member's identity.
type CalendarEntry struct {
	ReservationID uint64 `json:"reservation_id"`
	FacilityID    uint64 `json:"facility_id"`
	FacilityName  string `json:"facility_name"`
	SlotID        uint64 `json:"slot_id"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	Status        string `json:"status"`
	MemberID      uint64 `json:"member_id"`
	MemberName    string `json:"member_name"`
	MemberEmail   string `json:"member_email"`
}

// ListAvailableSlots returns the facility's slots occurring on the
// weekday of date, each with its booked count and free spots.
func (s *Service) ListAvailableSlots(ctx context.Context, facilityID uint64, date time.Time) ([]SlotAvailability, error) {
	if facilityID == 0 || date.IsZero() {
		return nil, errf(KindInvalidRequest, "facility and date are required")
	}
	date = model.DateOnly(date)

	facility, err := s.store.FacilityByID(ctx, facilityID)
	if errors.Is(err, ErrNotFound) {
		return nil, errf(KindResourceUnavailable, "facility %d does not exist", facilityID)
	}
	if err != nil {
		return nil, s.logged(unknown("load facility", err))
	}
	if !facility.IsActive {
		return nil, errf(KindResourceUnavailable, "facility %q is not bookable", facility.Name)
	}

	slots, err := s.store.ActiveSlotsByFacility(ctx, facilityID)
	if err != nil {
		return nil, s.logged(unknown("load slots", err))
	}
	out := make([]SlotAvailability, 0, len(slots))
	for _, slot := range slots {
		if !slot.OccursOn(date) {
			continue
		}
		booked, err := s.store.CountHolding(ctx, facilityID, slot.ID, date)
		if err != nil {
			return nil, s.logged(unknown("count holders", err))
		}
		free := int(facility.MaxCapacity) - booked
		if free < 0 {
			free = 0
		}
		out = append(out, SlotAvailability{
			SlotID:         slot.ID,
			StartTime:      slot.StartTime,
			EndTime:        slot.EndTime,
			BookedCount:    booked,
			AvailableSpots: free,
			IsFull:         booked >= int(facility.MaxCapacity),
		})
	}
	return out, nil
}

// ListMemberReservations returns the member's reservations newest
// first.  status filters by a single lifecycle status when non-empty;
// limit defaults to 20 and is capped at 100.
func (s *Service) ListMemberReservations(ctx context.Context, memberID uint64, status string, limit int) ([]ReservationSummary, error) {
	if memberID == 0 {
		return nil, errf(KindInvalidRequest, "member id is required")
	}
	switch status {
	case "", model.StatusConfirmed, model.StatusAttended, model.StatusNoShow, model.StatusCancelled:
	default:
		return nil, errf(KindInvalidRequest, "unknown status filter %q", status)
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	items, err := s.store.MemberReservations(ctx, memberID, status, limit)
	if err != nil {
		return nil, s.logged(unknown("list member reservations", err))
	}
	return items, nil
}

// Calendar returns all reservations dated within [from, to] for the
// given facilities (all facilities when none are given), member
// identity included.
func (s *Service) Calendar(ctx context.Context, facilityIDs []uint64, from, to time.Time) ([]CalendarEntry, error) {
	if from.IsZero() || to.IsZero() {
		return nil, errf(KindInvalidRequest, "from and to dates are required")
	}
	from = model.DateOnly(from)
	to = model.DateOnly(to)
	if to.Before(from) {
		return nil, errf(KindInvalidRequest, "date range end precedes start")
	}
	items, err := s.store.ReservationsForRange(ctx, facilityIDs, from, to)
	if err != nil {
		return nil, s.logged(unknown("list calendar reservations", err))
	}
	return items, nil
}
