package booking

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telmaron/clubbook/internal/model"
)

// monday is a fixed Monday used by every lifecycle test.
var monday = time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

// seedStore builds the standard fixture: three members with active
// subscriptions granting 8 "Pool Access" credits each, a benefit-gated
// pool lane with capacity 2 and a credit-free lounge.
func seedStore() *memStore {
	s := newMemStore()
	start := monday.AddDate(0, -1, 0)
	end := monday.AddDate(0, 2, 0)
	for i, name := range []string{"Avery Quinn", "Blair Ito", "Casey Mora"} {
		id := uint64(i + 1)
		s.members[id] = &model.Member{ID: id, FullName: name, Email: fmt.Sprintf("member%d@example.com", id), IsActive: true}
		s.periods[10+id] = &model.SubscriptionPeriod{
			ID: 10 + id, MemberID: id, PlanName: "Gold",
			Status: model.SubscriptionPeriodActive, StartsAt: start, EndsAt: end,
		}
		s.entries[100+id] = &model.BenefitLedgerEntry{
			ID: 100 + id, SubscriptionPeriodID: 10 + id, BenefitName: "Pool Access",
			TotalAllocated: 8, UsedCount: 0, RemainingCount: 8,
		}
	}
	s.facilities[1] = &model.Facility{ID: 1, Name: "Pool Lane 1", MaxCapacity: 2, IsActive: true, LinkedBenefitName: "Pool Access"}
	s.facilities[2] = &model.Facility{ID: 2, Name: "Lounge", MaxCapacity: 5, IsActive: true}
	s.slots[1] = &model.FacilitySlot{ID: 1, FacilityID: 1, DayOfWeek: time.Monday, StartTime: "09:00", EndTime: "10:00", IsActive: true}
	s.slots[2] = &model.FacilitySlot{ID: 2, FacilityID: 2, DayOfWeek: time.Monday, StartTime: "18:00", EndTime: "20:00", IsActive: true}
	return s
}

// captureNotifier records notifications for assertions.
type captureNotifier struct {
	mu        sync.Mutex
	confirmed []Notification
	cancelled []Notification
}

func (c *captureNotifier) ReservationConfirmed(ctx context.Context, n Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.confirmed = append(c.confirmed, n)
	return nil
}

func (c *captureNotifier) ReservationCancelled(ctx context.Context, n Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelled = append(c.cancelled, n)
	return nil
}

func poolRequest(memberID uint64) CreateRequest {
	return CreateRequest{MemberID: memberID, FacilityID: 1, SlotID: 1, Date: monday}
}

func TestCreateDebitsLedgerAndConfirms(t *testing.T) {
	store := seedStore()
	notifier := &captureNotifier{}
	svc := NewService(store, notifier)

	out, err := svc.Create(context.Background(), poolRequest(1))
	require.NoError(t, err)
	require.NotNil(t, out.Reservation)

	assert.Equal(t, model.StatusConfirmed, out.Reservation.Status)
	assert.Equal(t, "Pool Lane 1", out.FacilityName)
	assert.Equal(t, "09:00", out.StartTime)
	assert.Equal(t, "10:00", out.EndTime)
	require.NotNil(t, out.RemainingCredits)
	assert.Equal(t, uint32(7), *out.RemainingCredits)
	require.NotNil(t, out.Reservation.LedgerEntryID)

	entry := store.entries[101]
	assert.Equal(t, uint32(1), entry.UsedCount)
	assert.Equal(t, uint32(7), entry.RemainingCount)

	require.Len(t, notifier.confirmed, 1)
	assert.Equal(t, out.Reservation.ID, notifier.confirmed[0].ReservationID)
	assert.Equal(t, "member1@example.com", notifier.confirmed[0].MemberEmail)
}

func TestCreateCreditFreeFacilitySkipsLedger(t *testing.T) {
	store := seedStore()
	svc := NewService(store, nil)

	out, err := svc.Create(context.Background(), CreateRequest{MemberID: 1, FacilityID: 2, SlotID: 2, Date: monday})
	require.NoError(t, err)

	assert.Nil(t, out.RemainingCredits)
	assert.Nil(t, out.Reservation.LedgerEntryID)
	assert.Equal(t, uint32(0), store.entries[101].UsedCount)
}

func TestCreateBenefitMatchedCaseInsensitively(t *testing.T) {
	store := seedStore()
	store.facilities[1].LinkedBenefitName = "POOL ACCESS"
	svc := NewService(store, nil)

	out, err := svc.Create(context.Background(), poolRequest(1))
	require.NoError(t, err)
	require.NotNil(t, out.RemainingCredits)
	assert.Equal(t, uint32(7), *out.RemainingCredits)
}

func TestCreateNoActiveSubscription(t *testing.T) {
	store := seedStore()
	store.periods[11].Status = "EXPIRED"
	svc := NewService(store, nil)

	_, err := svc.Create(context.Background(), poolRequest(1))
	assert.Equal(t, KindNoActiveSubscription, KindOf(err))
	assert.Empty(t, store.reservations)
}

func TestCreateBenefitNotGranted(t *testing.T) {
	store := seedStore()
	store.facilities[1].LinkedBenefitName = "Sauna Access"
	svc := NewService(store, nil)

	_, err := svc.Create(context.Background(), poolRequest(1))
	assert.Equal(t, KindBenefitNotGranted, KindOf(err))
	assert.Empty(t, store.reservations)
}

func TestCreateInsufficientCredits(t *testing.T) {
	store := seedStore()
	store.entries[101].UsedCount = 8
	store.entries[101].RemainingCount = 0
	svc := NewService(store, nil)

	_, err := svc.Create(context.Background(), poolRequest(1))
	require.Equal(t, KindInsufficientCredits, KindOf(err))

	var de *Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, uint32(0), de.Remaining)
	assert.Equal(t, uint32(8), de.Allocated)

	assert.Empty(t, store.reservations)
	assert.Equal(t, uint32(8), store.entries[101].UsedCount)
}

func TestCreateSlotFullLeavesLedgerUntouched(t *testing.T) {
	store := seedStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, poolRequest(1))
	require.NoError(t, err)
	_, err = svc.Create(ctx, poolRequest(2))
	require.NoError(t, err)

	_, err = svc.Create(ctx, poolRequest(3))
	require.Equal(t, KindSlotFull, KindOf(err))

	var de *Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, uint32(2), de.MaxCapacity)

	// The loser's debit must have rolled back with the unit.
	assert.Equal(t, uint32(0), store.entries[103].UsedCount)
	assert.Equal(t, uint32(8), store.entries[103].RemainingCount)
	assert.Len(t, store.reservations, 2)
}

func TestCreateDuplicateHoldRejected(t *testing.T) {
	store := seedStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, poolRequest(1))
	require.NoError(t, err)

	_, err = svc.Create(ctx, poolRequest(1))
	assert.Equal(t, KindAlreadyBooked, KindOf(err))
	assert.Equal(t, uint32(1), store.entries[101].UsedCount)
	assert.Len(t, store.reservations, 1)
}

func TestCreateWeekdayMismatch(t *testing.T) {
	store := seedStore()
	svc := NewService(store, nil)

	tuesday := monday.AddDate(0, 0, 1)
	_, err := svc.Create(context.Background(), CreateRequest{MemberID: 1, FacilityID: 1, SlotID: 1, Date: tuesday})
	assert.Equal(t, KindSlotUnavailable, KindOf(err))
}

func TestCreateInactiveFacility(t *testing.T) {
	store := seedStore()
	store.facilities[1].IsActive = false
	svc := NewService(store, nil)

	_, err := svc.Create(context.Background(), poolRequest(1))
	assert.Equal(t, KindResourceUnavailable, KindOf(err))
}

func TestCreateUnknownFacility(t *testing.T) {
	svc := NewService(seedStore(), nil)

	_, err := svc.Create(context.Background(), CreateRequest{MemberID: 1, FacilityID: 99, SlotID: 1, Date: monday})
	assert.Equal(t, KindResourceUnavailable, KindOf(err))
}

func TestCreateSlotFromOtherFacility(t *testing.T) {
	svc := NewService(seedStore(), nil)

	_, err := svc.Create(context.Background(), CreateRequest{MemberID: 1, FacilityID: 1, SlotID: 2, Date: monday})
	assert.Equal(t, KindSlotUnavailable, KindOf(err))
}

func TestCreateInvalidRequest(t *testing.T) {
	svc := NewService(seedStore(), nil)

	_, err := svc.Create(context.Background(), CreateRequest{FacilityID: 1, SlotID: 1, Date: monday})
	assert.Equal(t, KindInvalidRequest, KindOf(err))
}

func TestCancelRefundsExactlyOnce(t *testing.T) {
	store := seedStore()
	notifier := &captureNotifier{}
	svc := NewService(store, notifier)
	ctx := context.Background()

	out, err := svc.Create(ctx, poolRequest(1))
	require.NoError(t, err)

	reason := "schedule conflict"
	memberID := uint64(1)
	err = svc.Cancel(ctx, CancelRequest{
		ReservationID: out.Reservation.ID,
		CancelledBy:   "member:1",
		Reason:        &reason,
		MemberID:      &memberID,
	})
	require.NoError(t, err)

	res := store.reservations[out.Reservation.ID]
	assert.Equal(t, model.StatusCancelled, res.Status)
	require.NotNil(t, res.CancelledAt)
	require.NotNil(t, res.CancelledBy)
	assert.Equal(t, "member:1", *res.CancelledBy)
	require.NotNil(t, res.CancelReason)
	assert.Equal(t, reason, *res.CancelReason)

	assert.Equal(t, uint32(0), store.entries[101].UsedCount)
	assert.Equal(t, uint32(8), store.entries[101].RemainingCount)
	require.Len(t, notifier.cancelled, 1)

	// A second cancel must not refund again.
	err = svc.Cancel(ctx, CancelRequest{ReservationID: out.Reservation.ID, CancelledBy: "member:1", MemberID: &memberID})
	assert.Equal(t, KindAlreadyCancelled, KindOf(err))
	assert.Equal(t, uint32(8), store.entries[101].RemainingCount)
	assert.Len(t, notifier.cancelled, 1)
}

func TestCancelOwnershipMismatchReportsNotFound(t *testing.T) {
	store := seedStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	out, err := svc.Create(ctx, poolRequest(1))
	require.NoError(t, err)

	other := uint64(2)
	err = svc.Cancel(ctx, CancelRequest{ReservationID: out.Reservation.ID, CancelledBy: "member:2", MemberID: &other})
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, model.StatusConfirmed, store.reservations[out.Reservation.ID].Status)
}

func TestCancelByStaffSkipsOwnership(t *testing.T) {
	store := seedStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	out, err := svc.Create(ctx, poolRequest(1))
	require.NoError(t, err)

	err = svc.Cancel(ctx, CancelRequest{ReservationID: out.Reservation.ID, CancelledBy: "staff:7"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, store.reservations[out.Reservation.ID].Status)
}

func TestCancelUnknownReservation(t *testing.T) {
	svc := NewService(seedStore(), nil)

	err := svc.Cancel(context.Background(), CancelRequest{ReservationID: 42, CancelledBy: "staff:7"})
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestMarkAttendedKeepsCapacityAndCredit(t *testing.T) {
	store := seedStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	out, err := svc.Create(ctx, poolRequest(1))
	require.NoError(t, err)

	require.NoError(t, svc.MarkAttended(ctx, out.Reservation.ID, "staff:7"))

	res := store.reservations[out.Reservation.ID]
	assert.Equal(t, model.StatusAttended, res.Status)
	require.NotNil(t, res.AttendedAt)

	count, err := store.CountHolding(ctx, 1, 1, monday)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, uint32(1), store.entries[101].UsedCount)

	// Attended reservations cannot be cancelled for a refund.
	err = svc.Cancel(ctx, CancelRequest{ReservationID: out.Reservation.ID, CancelledBy: "staff:7"})
	assert.Equal(t, KindAlreadyAttended, KindOf(err))
	assert.Equal(t, uint32(1), store.entries[101].UsedCount)
}

func TestMarkNoShowReleasesCapacityForfeitsCredit(t *testing.T) {
	store := seedStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	out, err := svc.Create(ctx, poolRequest(1))
	require.NoError(t, err)

	require.NoError(t, svc.MarkNoShow(ctx, out.Reservation.ID, "staff:7"))

	res := store.reservations[out.Reservation.ID]
	assert.Equal(t, model.StatusNoShow, res.Status)
	require.NotNil(t, res.AttendedAt)

	count, err := store.CountHolding(ctx, 1, 1, monday)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// No refund: the spot may be rebooked but the credit stays spent.
	assert.Equal(t, uint32(1), store.entries[101].UsedCount)

	err = svc.Cancel(ctx, CancelRequest{ReservationID: out.Reservation.ID, CancelledBy: "staff:7"})
	assert.Equal(t, KindAlreadyAttended, KindOf(err))
	assert.Equal(t, uint32(1), store.entries[101].UsedCount)
}

func TestMarkAttendedOnCancelledReservation(t *testing.T) {
	store := seedStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	out, err := svc.Create(ctx, poolRequest(1))
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(ctx, CancelRequest{ReservationID: out.Reservation.ID, CancelledBy: "staff:7"}))

	err = svc.MarkAttended(ctx, out.Reservation.ID, "staff:7")
	assert.Equal(t, KindAlreadyCancelled, KindOf(err))
}

func TestNoShowSpotCanBeRebooked(t *testing.T) {
	store := seedStore()
	store.facilities[1].MaxCapacity = 1
	svc := NewService(store, nil)
	ctx := context.Background()

	out, err := svc.Create(ctx, poolRequest(1))
	require.NoError(t, err)
	require.NoError(t, svc.MarkNoShow(ctx, out.Reservation.ID, "staff:7"))

	_, err = svc.Create(ctx, poolRequest(2))
	require.NoError(t, err)
}
