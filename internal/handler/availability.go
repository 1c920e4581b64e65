package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/telmaron/clubbook/internal/booking"
)

// AvailabilityHandler serves the per-facility slot availability view.
type AvailabilityHandler struct {
	Svc *booking.Service
}

// NewAvailabilityHandler constructs an AvailabilityHandler.
func NewAvailabilityHandler(svc *booking.Service) *AvailabilityHandler {
	if svc == nil {
		panic("nil service passed to NewAvailabilityHandler")
	}
	return &AvailabilityHandler{Svc: svc}
}

// ListSlots handles GET /v1/facilities/:id/slots?date=2006-01-02.  It
// returns every slot the facility runs on that weekday together with
// its current booked count and remaining spots.
func (h *AvailabilityHandler) ListSlots(c echo.Context) error {
	facilityID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || facilityID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid facility id"})
	}
	date, err := time.Parse("2006-01-02", c.QueryParam("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or missing date"})
	}
	slots, err := h.Svc.ListAvailableSlots(c.Request().Context(), facilityID, date)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"facility_id": facilityID,
		"date":        date.Format("2006-01-02"),
		"slots":       slots,
	})
}
