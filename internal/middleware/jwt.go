package middleware // middleware provides shared request processing for handlers

import (
	"net/http" // HTTP status codes for responses
	"strconv"  // parsing the numeric subject claim
	"strings"  // string utilities for prefix checking and trimming

	"github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
	"github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers
)

// Roles issued by the external auth service in the token's "role" claim.
const (
	RoleMember = "MEMBER"
	RoleStaff  = "STAFF"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the token's subject and role claims into the request context.
// Tokens are issued by the external auth service; this engine only verifies
// them with the shared secret.  Handlers access the authenticated identity
// via MemberID(c) and the "role" context key.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			// Parse with HS256 and the shared secret; reject any other
			// signing method.
			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			// Store the subject (member or staff ID) and role claims in
			// the context for downstream handlers and middleware.
			c.Set("subject", claims["sub"])
			c.Set("role", claims["role"])
			return next(c)
		}
	}
}

// MemberID extracts the numeric subject of the authenticated token.  The
// auth service issues "sub" either as a string or a JSON number, so both
// forms are accepted.  Returns 0 when no usable subject is present.
func MemberID(c echo.Context) uint64 {
	switch v := c.Get("subject").(type) {
	case string:
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			return id
		}
	case float64:
		if v > 0 {
			return uint64(v)
		}
	}
	return 0
}

// ActorTag renders the authenticated identity as the audit string stored
// on cancelled reservations, e.g. "member:42" or "staff:7".
func ActorTag(c echo.Context) string {
	role, _ := c.Get("role").(string)
	prefix := "member"
	if role == RoleStaff {
		prefix = "staff"
	}
	return prefix + ":" + strconv.FormatUint(MemberID(c), 10)
}
