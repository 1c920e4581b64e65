// Package booking implements the reservation and entitlement ledger
// engine: validating member standing, atomically pairing a capacity
// grant with a ledger debit, and driving reservations through their
// lifecycle.  All persistence happens behind the Store seam so the
// engine itself carries no database code.
package booking

import (
	"errors"
	"fmt"
)

// Kind discriminates the closed set of domain failures the engine can
// report.  Every error returned by the engine is either a *Error with
// one of these kinds or wraps an unexpected store failure as
// KindUnknown.  Handlers switch on the kind, never on the message.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidRequest
	KindNotFound
	KindResourceUnavailable
	KindSlotUnavailable
	KindNoActiveSubscription
	KindBenefitNotGranted
	KindInsufficientCredits
	KindSlotFull
	KindAlreadyBooked
	KindAlreadyCancelled
	KindAlreadyAttended
)

// String returns the wire-stable name of the kind, used as the error
// code in HTTP responses and logs.
func (k Kind) String() string {
	switch k {
	case KindInvalidRequest:
		return "INVALID_REQUEST"
	case KindNotFound:
		return "NOT_FOUND"
	case KindResourceUnavailable:
		return "RESOURCE_UNAVAILABLE"
	case KindSlotUnavailable:
		return "SLOT_UNAVAILABLE"
	case KindNoActiveSubscription:
		return "NO_ACTIVE_SUBSCRIPTION"
	case KindBenefitNotGranted:
		return "BENEFIT_NOT_GRANTED"
	case KindInsufficientCredits:
		return "INSUFFICIENT_CREDITS"
	case KindSlotFull:
		return "SLOT_FULL"
	case KindAlreadyBooked:
		return "ALREADY_BOOKED"
	case KindAlreadyCancelled:
		return "ALREADY_CANCELLED"
	case KindAlreadyAttended:
		return "ALREADY_ATTENDED"
	default:
		return "UNKNOWN"
	}
}

// Error is the engine's error type.  Besides the kind and message it
// carries the structured fields callers need to render a useful
// response: the remaining/allocated credit counts on
// KindInsufficientCredits and the capacity ceiling on KindSlotFull.
type Error struct {
	Kind        Kind
	Msg         string
	Remaining   uint32 // set for KindInsufficientCredits
	Allocated   uint32 // set for KindInsufficientCredits
	MaxCapacity uint32 // set for KindSlotFull
	Err         error  // wrapped cause, set for KindUnknown
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap exposes the underlying cause of a KindUnknown error for
// errors.Is/As chains.
func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the domain kind from err.  Any error that is not a
// *Error reports KindUnknown.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}

func errf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// insufficientCredits carries the exact counts so a caller can render
// "0 of N remaining".
func insufficientCredits(remaining, allocated uint32) *Error {
	return &Error{
		Kind:      KindInsufficientCredits,
		Msg:       fmt.Sprintf("%d of %d credits remaining", remaining, allocated),
		Remaining: remaining,
		Allocated: allocated,
	}
}

func slotFull(maxCapacity uint32) *Error {
	return &Error{
		Kind:        KindSlotFull,
		Msg:         fmt.Sprintf("slot capacity of %d is fully booked", maxCapacity),
		MaxCapacity: maxCapacity,
	}
}

// unknown wraps an unanticipated store failure.  The original error is
// preserved for logging; callers see a generic retryable kind.
func unknown(op string, err error) *Error {
	return &Error{Kind: KindUnknown, Msg: op, Err: err}
}
