package router

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/telmaron/clubbook/internal/config"
	"github.com/telmaron/clubbook/internal/handler"
	"github.com/telmaron/clubbook/internal/middleware"
)

// requestValidator adapts go-playground/validator to Echo's Validator
// interface so handlers can call c.Validate on bound request structs.
type requestValidator struct {
	v *validator.Validate
}

func (rv *requestValidator) Validate(i interface{}) error {
	return rv.v.Struct(i)
}

// Deps carries everything route registration needs.  The redis client
// may be nil, in which case rate limiting and response caching become
// pass-throughs.
type Deps struct {
	Reservations *handler.ReservationHandler
	Staff        *handler.StaffHandler
	Availability *handler.AvailabilityHandler
	JWTSecret    string
	Redis        *redis.Client
}

// Register wires every route on the provided Echo instance.
//
// Public surface: /healthz and the facility availability view.
// Member surface (JWT, MEMBER or STAFF role): create, cancel and list
// own reservations.  Staff surface (JWT, STAFF role): attendance
// marking and the calendar feed.
func Register(e *echo.Echo, d Deps) {
	e.Validator = &requestValidator{v: validator.New()}

	e.GET("/healthz", handler.Health)

	// Availability is a guest-browsable read, cached briefly so that a
	// busy booking page does not hammer the count query.
	avail := e.Group("/v1/facilities")
	avail.Use(middleware.NewRedisCache(config.LoadCacheConfig(), d.Redis))
	avail.GET("/:id/slots", d.Availability.ListSlots)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(d.JWTSecret))
	auth.Use(middleware.RequireRole(middleware.RoleMember, middleware.RoleStaff))
	auth.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), d.Redis))

	auth.POST("/reservations", d.Reservations.Create)
	auth.DELETE("/reservations/:id", d.Reservations.Cancel)
	auth.GET("/my-reservations", d.Reservations.ListMine)

	staff := e.Group("/v1")
	staff.Use(middleware.JWTAuth(d.JWTSecret))
	staff.Use(middleware.RequireRole(middleware.RoleStaff))

	staff.POST("/reservations/:id/attended", d.Staff.MarkAttended)
	staff.POST("/reservations/:id/no-show", d.Staff.MarkNoShow)
	staff.GET("/calendar", d.Staff.Calendar)
}
