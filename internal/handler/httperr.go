package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/telmaron/clubbook/internal/booking"
)

// statusForKind maps the engine's closed error-kind set onto HTTP
// status codes.  Concurrency losers land on 409 with a specific code so
// clients can offer "pick another time" instead of a generic retry.
func statusForKind(kind booking.Kind) int {
	switch kind {
	case booking.KindInvalidRequest:
		return http.StatusBadRequest
	case booking.KindNotFound, booking.KindResourceUnavailable, booking.KindSlotUnavailable:
		return http.StatusNotFound
	case booking.KindNoActiveSubscription, booking.KindBenefitNotGranted:
		return http.StatusForbidden
	case booking.KindInsufficientCredits, booking.KindSlotFull,
		booking.KindAlreadyBooked, booking.KindAlreadyCancelled, booking.KindAlreadyAttended:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError renders a booking error as JSON.  The structured fields
// the engine attaches (credit counts, capacity ceiling) are surfaced so
// the UI can explain exactly why the request failed.
func respondError(c echo.Context, err error) error {
	var de *booking.Error
	if !errors.As(err, &de) {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":   booking.KindUnknown.String(),
			"message": "unexpected error, please retry",
		})
	}
	body := echo.Map{"error": de.Kind.String(), "message": de.Msg}
	switch de.Kind {
	case booking.KindInsufficientCredits:
		body["remaining"] = de.Remaining
		body["allocated"] = de.Allocated
	case booking.KindSlotFull:
		body["max_capacity"] = de.MaxCapacity
	case booking.KindUnknown:
		// Internals stay in the logs; callers get a retryable message.
		body["message"] = "unexpected error, please retry"
	}
	return c.JSON(statusForKind(de.Kind), body)
}
