package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	raw, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return raw
}

func runJWT(t *testing.T, authHeader string) (echo.Context, *httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var captured echo.Context
	h := JWTAuth(testSecret)(func(c echo.Context) error {
		captured = c
		return c.NoContent(http.StatusOK)
	})
	err := h(c)
	if captured != nil {
		return captured, rec, err
	}
	return c, rec, err
}

func TestJWTAuthValidToken(t *testing.T) {
	raw := signToken(t, testSecret, jwt.MapClaims{"sub": "42", "role": RoleMember})

	c, rec, err := runJWT(t, "Bearer "+raw)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(42), MemberID(c))
	assert.Equal(t, "member:42", ActorTag(c))
}

func TestJWTAuthNumericSubject(t *testing.T) {
	raw := signToken(t, testSecret, jwt.MapClaims{"sub": 7, "role": RoleStaff})

	c, rec, err := runJWT(t, "Bearer "+raw)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(7), MemberID(c))
	assert.Equal(t, "staff:7", ActorTag(c))
}

func TestJWTAuthMissingHeader(t *testing.T) {
	_, rec, err := runJWT(t, "")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthWrongSecret(t *testing.T) {
	raw := signToken(t, "other-secret", jwt.MapClaims{"sub": "42", "role": RoleMember})

	_, rec, err := runJWT(t, "Bearer "+raw)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	e := echo.New()

	run := func(role interface{}) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if role != nil {
			c.Set("role", role)
		}
		h := RequireRole(RoleStaff)(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})
		require.NoError(t, h(c))
		return rec
	}

	assert.Equal(t, http.StatusOK, run(RoleStaff).Code)
	assert.Equal(t, http.StatusForbidden, run(RoleMember).Code)
	assert.Equal(t, http.StatusForbidden, run(nil).Code)
	assert.Equal(t, http.StatusForbidden, run(123).Code)
}
