package booking

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindWireNames(t *testing.T) {
	cases := map[Kind]string{
		KindUnknown:              "UNKNOWN",
		KindInvalidRequest:       "INVALID_REQUEST",
		KindNotFound:             "NOT_FOUND",
		KindResourceUnavailable:  "RESOURCE_UNAVAILABLE",
		KindSlotUnavailable:      "SLOT_UNAVAILABLE",
		KindNoActiveSubscription: "NO_ACTIVE_SUBSCRIPTION",
		KindBenefitNotGranted:    "BENEFIT_NOT_GRANTED",
		KindInsufficientCredits:  "INSUFFICIENT_CREDITS",
		KindSlotFull:             "SLOT_FULL",
		KindAlreadyBooked:        "ALREADY_BOOKED",
		KindAlreadyCancelled:     "ALREADY_CANCELLED",
		KindAlreadyAttended:      "ALREADY_ATTENDED",
	}
	for kind, name := range cases {
		assert.Equal(t, name, kind.String())
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindSlotFull, KindOf(slotFull(4)))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(unknown("op", errors.New("cause"))))
}

func TestUnknownPreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := unknown("load member", cause)
	assert.ErrorIs(t, err, cause)
}

func TestInsufficientCreditsCarriesCounts(t *testing.T) {
	err := insufficientCredits(0, 6)
	assert.Equal(t, uint32(0), err.Remaining)
	assert.Equal(t, uint32(6), err.Allocated)
	assert.Contains(t, err.Error(), "0 of 6 credits remaining")
}
