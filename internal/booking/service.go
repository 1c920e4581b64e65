package booking

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/telmaron/clubbook/internal/model"
)

// Service orchestrates the reservation lifecycle.  Each public method
// performs exactly one atomic unit against the store; the ledger debit,
// the capacity check and the reservation write always commit together
// or not at all.
type Service struct {
	store    Store
	notifier Notifier         // may be nil; notifications are best-effort
	now      func() time.Time // injectable clock
}

// NewService constructs a Service.  The store must be non-nil; the
// notifier may be nil when no broker is configured.
func NewService(store Store, notifier Notifier) *Service {
	if store == nil {
		panic("nil store passed to NewService")
	}
	return &Service{store: store, notifier: notifier, now: func() time.Time { return time.Now().UTC() }}
}

// CreateRequest names the inputs of a reservation attempt.
type CreateRequest struct {
	MemberID   uint64
	FacilityID uint64
	SlotID     uint64
	Date       time.Time
}

// CreateResult is returned on a successful reservation.
// RemainingCredits is nil when the facility is credit-free.
type CreateResult struct {
	Reservation      *model.Reservation
	FacilityName     string
	StartTime        string
	EndTime          string
	RemainingCredits *uint32
}

// Create reserves one unit of slot capacity and, when the facility is
// benefit-gated, one ledger credit for the member on the given date.
//
// The duplicate-hold check, the capacity count and the ledger balance
// are all re-read inside the transaction under row locks, never decided
// from an earlier round-trip; two members racing for the last spot
// serialize on the facility row and the loser gets KindSlotFull.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	if req.MemberID == 0 || req.FacilityID == 0 || req.SlotID == 0 || req.Date.IsZero() {
		return nil, errf(KindInvalidRequest, "member, facility, slot and date are required")
	}
	date := model.DateOnly(req.Date)

	var (
		facility *model.Facility
		slot     *model.FacilitySlot
		member   *model.Member
		res      *model.Reservation
		entry    *model.BenefitLedgerEntry
	)
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		var err error

		// Locking the facility row serializes all writers for this
		// facility; every check below sees the committed state of the
		// previous winner.
		facility, err = tx.FacilityByIDForUpdate(ctx, req.FacilityID)
		if errors.Is(err, ErrNotFound) {
			return errf(KindResourceUnavailable, "facility %d does not exist", req.FacilityID)
		}
		if err != nil {
			return unknown("load facility", err)
		}
		if !facility.IsActive {
			return errf(KindResourceUnavailable, "facility %q is not bookable", facility.Name)
		}

		slot, err = tx.SlotByID(ctx, req.SlotID)
		if errors.Is(err, ErrNotFound) {
			return errf(KindSlotUnavailable, "slot %d does not exist", req.SlotID)
		}
		if err != nil {
			return unknown("load slot", err)
		}
		if slot.FacilityID != facility.ID || !slot.IsActive {
			return errf(KindSlotUnavailable, "slot %d is not bookable on facility %d", slot.ID, facility.ID)
		}
		if !slot.OccursOn(date) {
			return errf(KindSlotUnavailable, "slot %d does not occur on %s", slot.ID, date.Format("2006-01-02"))
		}

		member, err = tx.MemberByID(ctx, req.MemberID)
		if errors.Is(err, ErrNotFound) {
			return errf(KindNotFound, "member %d does not exist", req.MemberID)
		}
		if err != nil {
			return unknown("load member", err)
		}

		// Credit-free facilities skip the ledger entirely.
		if facility.LinkedBenefitName != "" {
			period, perr := tx.ActiveSubscriptionPeriod(ctx, member.ID)
			if errors.Is(perr, ErrNotFound) {
				return errf(KindNoActiveSubscription, "member %d has no active subscription", member.ID)
			}
			if perr != nil {
				return unknown("load subscription period", perr)
			}
			entry, perr = tx.LedgerEntryForUpdate(ctx, period.ID, facility.LinkedBenefitName)
			if errors.Is(perr, ErrNotFound) {
				return errf(KindBenefitNotGranted, "plan %q does not grant %q", period.PlanName, facility.LinkedBenefitName)
			}
			if perr != nil {
				return unknown("load ledger entry", perr)
			}
		}

		already, err := tx.MemberHolds(ctx, member.ID, facility.ID, slot.ID, date)
		if err != nil {
			return unknown("check existing reservation", err)
		}
		if already {
			return errf(KindAlreadyBooked, "member %d already holds this slot on %s", member.ID, date.Format("2006-01-02"))
		}

		count, err := tx.CountHolding(ctx, facility.ID, slot.ID, date)
		if err != nil {
			return unknown("count holders", err)
		}
		if count >= int(facility.MaxCapacity) {
			return slotFull(facility.MaxCapacity)
		}

		res = &model.Reservation{
			MemberID:   member.ID,
			FacilityID: facility.ID,
			SlotID:     slot.ID,
			Date:       date,
			Status:     model.StatusConfirmed,
		}
		if entry != nil {
			// Re-checked here even though the entry was just read: the
			// guarded debit is the authoritative balance test.
			if entry.RemainingCount < 1 {
				return insufficientCredits(entry.RemainingCount, entry.TotalAllocated)
			}
			debited, derr := tx.DebitLedgerEntry(ctx, entry.ID, 1)
			if errors.Is(derr, ErrInsufficient) {
				return insufficientCredits(entry.RemainingCount, entry.TotalAllocated)
			}
			if derr != nil {
				return unknown("debit ledger entry", derr)
			}
			entry = debited
			res.LedgerEntryID = &entry.ID
		}
		if err := tx.InsertReservation(ctx, res); err != nil {
			return unknown("insert reservation", err)
		}
		return nil
	})
	if err != nil {
		return nil, s.logged(err)
	}

	out := &CreateResult{
		Reservation:  res,
		FacilityName: facility.Name,
		StartTime:    slot.StartTime,
		EndTime:      slot.EndTime,
	}
	if entry != nil {
		remaining := entry.RemainingCount
		out.RemainingCredits = &remaining
	}
	s.notifyConfirmed(ctx, member, out)
	return out, nil
}

// CancelRequest names the inputs of a cancellation.  When MemberID is
// set the reservation must belong to that member; a mismatch reports
// KindNotFound so members cannot probe other members' bookings.
type CancelRequest struct {
	ReservationID uint64
	CancelledBy   string
	Reason        *string
	MemberID      *uint64
}

// Cancel moves a CONFIRMED reservation to CANCELLED, releasing its
// capacity and refunding its ledger credit (if one was debited) exactly
// once.  A second cancel attempt reports KindAlreadyCancelled and
// leaves the ledger untouched.
func (s *Service) Cancel(ctx context.Context, req CancelRequest) error {
	if req.ReservationID == 0 || req.CancelledBy == "" {
		return errf(KindInvalidRequest, "reservation id and actor are required")
	}

	var (
		res      *model.Reservation
		member   *model.Member
		facility *model.Facility
		slot     *model.FacilitySlot
	)
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		var err error
		res, err = s.lockConfirmed(ctx, tx, req.ReservationID, req.MemberID)
		if err != nil {
			return err
		}

		now := s.now()
		res.Status = model.StatusCancelled
		res.CancelledAt = &now
		actor := req.CancelledBy
		res.CancelledBy = &actor
		res.CancelReason = req.Reason
		if err := tx.UpdateReservationStatus(ctx, res); err != nil {
			return unknown("update reservation", err)
		}
		if res.LedgerEntryID != nil {
			if _, err := tx.CreditLedgerEntry(ctx, *res.LedgerEntryID, 1); err != nil {
				return unknown("credit ledger entry", err)
			}
		}

		// Loaded for the notification payload only.
		member, _ = tx.MemberByID(ctx, res.MemberID)
		facility, _ = tx.FacilityByID(ctx, res.FacilityID)
		slot, _ = tx.SlotByID(ctx, res.SlotID)
		return nil
	})
	if err != nil {
		return s.logged(err)
	}
	s.notifyCancelled(ctx, member, facility, slot, res)
	return nil
}

// MarkAttended records that the member showed up.  Capacity stays held
// and the credit stays consumed; only the status and timestamp change.
func (s *Service) MarkAttended(ctx context.Context, reservationID uint64, actor string) error {
	return s.finalize(ctx, reservationID, actor, model.StatusAttended)
}

// MarkNoShow records that the member did not show up.  Capacity is
// released but the credit is forfeited: no refund is issued.
func (s *Service) MarkNoShow(ctx context.Context, reservationID uint64, actor string) error {
	return s.finalize(ctx, reservationID, actor, model.StatusNoShow)
}

func (s *Service) finalize(ctx context.Context, reservationID uint64, actor, status string) error {
	if reservationID == 0 || actor == "" {
		return errf(KindInvalidRequest, "reservation id and actor are required")
	}
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		res, err := s.lockConfirmed(ctx, tx, reservationID, nil)
		if err != nil {
			return err
		}
		now := s.now()
		res.Status = status
		res.AttendedAt = &now
		if err := tx.UpdateReservationStatus(ctx, res); err != nil {
			return unknown("update reservation", err)
		}
		return nil
	})
	if err != nil {
		return s.logged(err)
	}
	return nil
}

// lockConfirmed loads the reservation under a row lock and verifies it
// is still CONFIRMED, translating every other status into the matching
// already-transitioned kind.
func (s *Service) lockConfirmed(ctx context.Context, tx Tx, id uint64, memberID *uint64) (*model.Reservation, error) {
	res, err := tx.ReservationByIDForUpdate(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, errf(KindNotFound, "reservation %d does not exist", id)
	}
	if err != nil {
		return nil, unknown("load reservation", err)
	}
	if memberID != nil && res.MemberID != *memberID {
		return nil, errf(KindNotFound, "reservation %d does not exist", id)
	}
	switch res.Status {
	case model.StatusConfirmed:
		return res, nil
	case model.StatusCancelled:
		return nil, errf(KindAlreadyCancelled, "reservation %d is already cancelled", id)
	default:
		// ATTENDED and NO_SHOW are both finalized attendance outcomes.
		return nil, errf(KindAlreadyAttended, "reservation %d is already %s", id, res.Status)
	}
}

// logged writes unexpected failures with context and passes every error
// through unchanged; domain kinds are the caller's to handle.
func (s *Service) logged(err error) error {
	var de *Error
	if errors.As(err, &de) {
		if de.Kind == KindUnknown {
			log.Printf("booking: %s: %v", de.Msg, de.Err)
		}
		return err
	}
	log.Printf("booking: unexpected store failure: %v", err)
	return unknown("store failure", err)
}

func (s *Service) notifyConfirmed(ctx context.Context, member *model.Member, out *CreateResult) {
	if s.notifier == nil {
		return
	}
	n := Notification{
		ReservationID: out.Reservation.ID,
		MemberID:      out.Reservation.MemberID,
		FacilityName:  out.FacilityName,
		Date:          out.Reservation.Date,
		StartTime:     out.StartTime,
		EndTime:       out.EndTime,
	}
	if member != nil {
		n.MemberEmail = member.Email
	}
	if err := s.notifier.ReservationConfirmed(ctx, n); err != nil {
		log.Printf("booking: confirm notification failed (ignored): %v", err)
	}
}

func (s *Service) notifyCancelled(ctx context.Context, member *model.Member, facility *model.Facility, slot *model.FacilitySlot, res *model.Reservation) {
	if s.notifier == nil {
		return
	}
	n := Notification{ReservationID: res.ID, MemberID: res.MemberID, Date: res.Date}
	if member != nil {
		n.MemberEmail = member.Email
	}
	if facility != nil {
		n.FacilityName = facility.Name
	}
	if slot != nil {
		n.StartTime = slot.StartTime
		n.EndTime = slot.EndTime
	}
	if err := s.notifier.ReservationCancelled(ctx, n); err != nil {
		log.Printf("booking: cancel notification failed (ignored): %v", err)
	}
}
