package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/telmaron/clubbook/internal/booking"
	"github.com/telmaron/clubbook/internal/middleware"
)

// StaffHandler exposes attendance marking and the calendar feed to
// staff.  Routes using it must be wrapped in RequireRole(RoleStaff).
type StaffHandler struct {
	Svc *booking.Service
}

// NewStaffHandler constructs a StaffHandler.
func NewStaffHandler(svc *booking.Service) *StaffHandler {
	if svc == nil {
		panic("nil service passed to NewStaffHandler")
	}
	return &StaffHandler{Svc: svc}
}

// MarkAttended handles POST /v1/reservations/:id/attended.
func (h *StaffHandler) MarkAttended(c echo.Context) error {
	return h.finalize(c, h.Svc.MarkAttended)
}

// MarkNoShow handles POST /v1/reservations/:id/no-show.  The member's
// credit is forfeited; only the capacity is released.
func (h *StaffHandler) MarkNoShow(c echo.Context) error {
	return h.finalize(c, h.Svc.MarkNoShow)
}

func (h *StaffHandler) finalize(c echo.Context, op func(ctx context.Context, id uint64, actor string) error) error {
	resID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || resID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	if err := op(c.Request().Context(), resID, middleware.ActorTag(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

// Calendar handles GET /v1/calendar?from=&to=&facility_ids=1,2.  It
// returns every reservation in the date range with member identity for
// the staff desk view.
func (h *StaffHandler) Calendar(c echo.Context) error {
	from, err := time.Parse("2006-01-02", c.QueryParam("from"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid from date"})
	}
	to, err := time.Parse("2006-01-02", c.QueryParam("to"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid to date"})
	}
	var facilityIDs []uint64
	if raw := c.QueryParam("facility_ids"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
			if err != nil || id == 0 {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid facility_ids"})
			}
			facilityIDs = append(facilityIDs, id)
		}
	}
	items, err := h.Svc.Calendar(c.Request().Context(), facilityIDs, from, to)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
