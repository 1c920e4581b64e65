package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/telmaron/clubbook/internal/booking"
	"github.com/telmaron/clubbook/internal/middleware"
)

// ReservationHandler exposes the booking engine to members.  JWT
// authentication and role checks happen in middleware; handlers only
// parse, delegate and translate errors.  Every mutating method is one
// call into the engine, which runs it as one atomic unit.
type ReservationHandler struct {
	Svc *booking.Service
}

// NewReservationHandler constructs a ReservationHandler.
func NewReservationHandler(svc *booking.Service) *ReservationHandler {
	if svc == nil {
		panic("nil service passed to NewReservationHandler")
	}
	return &ReservationHandler{Svc: svc}
}

type createReservationRequest struct {
	FacilityID uint64 `json:"facility_id" validate:"required"`
	SlotID     uint64 `json:"slot_id" validate:"required"`
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
}

type cancelReservationRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// Create handles POST /v1/reservations.  The member books one spot in
// a facility slot on a given date, spending one ledger credit when the
// facility is benefit-gated.
func (h *ReservationHandler) Create(c echo.Context) error {
	memberID := middleware.MemberID(c)
	if memberID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body createReservationRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body", "detail": err.Error()})
	}
	date, err := time.Parse("2006-01-02", body.Date)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
	}

	out, err := h.Svc.Create(c.Request().Context(), booking.CreateRequest{
		MemberID:   memberID,
		FacilityID: body.FacilityID,
		SlotID:     body.SlotID,
		Date:       date,
	})
	if err != nil {
		return respondError(c, err)
	}

	resp := echo.Map{
		"reservation_id": out.Reservation.ID,
		"facility_name":  out.FacilityName,
		"date":           out.Reservation.Date.Format("2006-01-02"),
		"start_time":     out.StartTime,
		"end_time":       out.EndTime,
	}
	if out.RemainingCredits != nil {
		resp["remaining_credits"] = *out.RemainingCredits
	}
	return c.JSON(http.StatusCreated, resp)
}

// Cancel handles DELETE /v1/reservations/:id.  Members may only cancel
// their own reservations; staff may cancel any.  The optional JSON body
// carries a cancellation reason.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	actorID := middleware.MemberID(c)
	if actorID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	resID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || resID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}

	// The body is optional on DELETE; a missing or empty body is fine.
	var body cancelReservationRequest
	_ = c.Bind(&body)

	req := booking.CancelRequest{
		ReservationID: resID,
		CancelledBy:   middleware.ActorTag(c),
	}
	if body.Reason != "" {
		reason := body.Reason
		req.Reason = &reason
	}
	if role, _ := c.Get("role").(string); role != middleware.RoleStaff {
		member := actorID
		req.MemberID = &member
	}

	if err := h.Svc.Cancel(c.Request().Context(), req); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

// ListMine handles GET /v1/my-reservations.  Supports an optional
// status filter and limit.
func (h *ReservationHandler) ListMine(c echo.Context) error {
	memberID := middleware.MemberID(c)
	if memberID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	status := c.QueryParam("status")
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
		}
		limit = n
	}
	items, err := h.Svc.ListMemberReservations(c.Request().Context(), memberID, status, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
