package booking

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/telmaron/clubbook/internal/model"
)

// memStore is an in-memory Store used to exercise the engine without a
// database.  A single mutex serializes WithinTx calls the way InnoDB
// row locks serialize conflicting units, and each unit runs against a
// deep copy of the state so an error rolls back cleanly.
type memStore struct {
	mu sync.Mutex

	members      map[uint64]*model.Member
	periods      map[uint64]*model.SubscriptionPeriod
	entries      map[uint64]*model.BenefitLedgerEntry
	facilities   map[uint64]*model.Facility
	slots        map[uint64]*model.FacilitySlot
	reservations map[uint64]*model.Reservation
	nextResID    uint64
}

func newMemStore() *memStore {
	return &memStore{
		members:      map[uint64]*model.Member{},
		periods:      map[uint64]*model.SubscriptionPeriod{},
		entries:      map[uint64]*model.BenefitLedgerEntry{},
		facilities:   map[uint64]*model.Facility{},
		slots:        map[uint64]*model.FacilitySlot{},
		reservations: map[uint64]*model.Reservation{},
	}
}

func (m *memStore) clone() *memStore {
	c := newMemStore()
	c.nextResID = m.nextResID
	for k, v := range m.members {
		cp := *v
		c.members[k] = &cp
	}
	for k, v := range m.periods {
		cp := *v
		c.periods[k] = &cp
	}
	for k, v := range m.entries {
		cp := *v
		c.entries[k] = &cp
	}
	for k, v := range m.facilities {
		cp := *v
		c.facilities[k] = &cp
	}
	for k, v := range m.slots {
		cp := *v
		c.slots[k] = &cp
	}
	for k, v := range m.reservations {
		cp := *v
		c.reservations[k] = &cp
	}
	return c
}

func (m *memStore) adopt(c *memStore) {
	m.members = c.members
	m.periods = c.periods
	m.entries = c.entries
	m.facilities = c.facilities
	m.slots = c.slots
	m.reservations = c.reservations
	m.nextResID = c.nextResID
}

func (m *memStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	work := m.clone()
	if err := fn(&memTx{s: work}); err != nil {
		return err
	}
	m.adopt(work)
	return nil
}

func (m *memStore) FacilityByID(ctx context.Context, id uint64) (*model.Facility, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{s: m}).FacilityByID(ctx, id)
}

func (m *memStore) ActiveSlotsByFacility(ctx context.Context, facilityID uint64) ([]model.FacilitySlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.FacilitySlot
	for _, s := range m.slots {
		if s.FacilityID == facilityID && s.IsActive {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memStore) CountHolding(ctx context.Context, facilityID, slotID uint64, date time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{s: m}).CountHolding(ctx, facilityID, slotID, date)
}

func (m *memStore) MemberReservations(ctx context.Context, memberID uint64, status string, limit int) ([]ReservationSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ReservationSummary
	for _, r := range m.reservations {
		if r.MemberID != memberID {
			continue
		}
		if status != "" && r.Status != status {
			continue
		}
		facility := m.facilities[r.FacilityID]
		slot := m.slots[r.SlotID]
		out = append(out, ReservationSummary{
			ID:           r.ID,
			FacilityID:   r.FacilityID,
			FacilityName: facility.Name,
			SlotID:       r.SlotID,
			Date:         r.Date.Format("2006-01-02"),
			StartTime:    slot.StartTime,
			EndTime:      slot.EndTime,
			Status:       r.Status,
			CreatedAt:    r.CreatedAt,
		})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) ReservationsForRange(ctx context.Context, facilityIDs []uint64, from, to time.Time) ([]CalendarEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wanted := func(id uint64) bool {
		if len(facilityIDs) == 0 {
			return true
		}
		for _, fid := range facilityIDs {
			if fid == id {
				return true
			}
		}
		return false
	}
	var out []CalendarEntry
	for _, r := range m.reservations {
		if r.Date.Before(from) || r.Date.After(to) || !wanted(r.FacilityID) {
			continue
		}
		facility := m.facilities[r.FacilityID]
		slot := m.slots[r.SlotID]
		member := m.members[r.MemberID]
		out = append(out, CalendarEntry{
			ReservationID: r.ID,
			FacilityID:    r.FacilityID,
			FacilityName:  facility.Name,
			SlotID:        r.SlotID,
			Date:          r.Date.Format("2006-01-02"),
			StartTime:     slot.StartTime,
			EndTime:       slot.EndTime,
			Status:        r.Status,
			MemberID:      r.MemberID,
			MemberName:    member.FullName,
			MemberEmail:   member.Email,
		})
	}
	return out, nil
}

// memTx implements Tx directly against a memStore's maps.  The ForUpdate
// variants are plain reads here; exclusion comes from the store mutex.
type memTx struct {
	s *memStore
}

func (t *memTx) MemberByID(ctx context.Context, id uint64) (*model.Member, error) {
	m, ok := t.s.members[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (t *memTx) ActiveSubscriptionPeriod(ctx context.Context, memberID uint64) (*model.SubscriptionPeriod, error) {
	var best *model.SubscriptionPeriod
	for _, p := range t.s.periods {
		if p.MemberID != memberID || p.Status != model.SubscriptionPeriodActive {
			continue
		}
		if best == nil || p.EndsAt.After(best.EndsAt) {
			best = p
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	cp := *best
	return &cp, nil
}

func (t *memTx) LedgerEntryForUpdate(ctx context.Context, periodID uint64, benefit string) (*model.BenefitLedgerEntry, error) {
	for _, e := range t.s.entries {
		if e.SubscriptionPeriodID == periodID && strings.EqualFold(e.BenefitName, benefit) {
			cp := *e
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (t *memTx) DebitLedgerEntry(ctx context.Context, entryID uint64, amount uint32) (*model.BenefitLedgerEntry, error) {
	e, ok := t.s.entries[entryID]
	if !ok {
		return nil, ErrNotFound
	}
	if e.RemainingCount < amount {
		return nil, ErrInsufficient
	}
	e.UsedCount += amount
	e.RemainingCount -= amount
	cp := *e
	return &cp, nil
}

func (t *memTx) CreditLedgerEntry(ctx context.Context, entryID uint64, amount uint32) (*model.BenefitLedgerEntry, error) {
	e, ok := t.s.entries[entryID]
	if !ok {
		return nil, ErrNotFound
	}
	if amount > e.UsedCount {
		amount = e.UsedCount
	}
	e.UsedCount -= amount
	e.RemainingCount = e.TotalAllocated - e.UsedCount
	cp := *e
	return &cp, nil
}

func (t *memTx) FacilityByID(ctx context.Context, id uint64) (*model.Facility, error) {
	f, ok := t.s.facilities[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (t *memTx) FacilityByIDForUpdate(ctx context.Context, id uint64) (*model.Facility, error) {
	return t.FacilityByID(ctx, id)
}

func (t *memTx) SlotByID(ctx context.Context, id uint64) (*model.FacilitySlot, error) {
	s, ok := t.s.slots[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (t *memTx) MemberHolds(ctx context.Context, memberID, facilityID, slotID uint64, date time.Time) (bool, error) {
	for _, r := range t.s.reservations {
		if r.MemberID == memberID && r.FacilityID == facilityID && r.SlotID == slotID &&
			r.Date.Equal(date) && r.Holding() {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) CountHolding(ctx context.Context, facilityID, slotID uint64, date time.Time) (int, error) {
	n := 0
	for _, r := range t.s.reservations {
		if r.FacilityID == facilityID && r.SlotID == slotID && r.Date.Equal(date) && r.Holding() {
			n++
		}
	}
	return n, nil
}

func (t *memTx) InsertReservation(ctx context.Context, r *model.Reservation) error {
	t.s.nextResID++
	r.ID = t.s.nextResID
	r.CreatedAt = time.Now().UTC()
	cp := *r
	t.s.reservations[r.ID] = &cp
	return nil
}

func (t *memTx) ReservationByIDForUpdate(ctx context.Context, id uint64) (*model.Reservation, error) {
	r, ok := t.s.reservations[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (t *memTx) UpdateReservationStatus(ctx context.Context, r *model.Reservation) error {
	if _, ok := t.s.reservations[r.ID]; !ok {
		return ErrNotFound
	}
	cp := *r
	t.s.reservations[r.ID] = &cp
	return nil
}
