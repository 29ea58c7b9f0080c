package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luizfprog/betesportes-api/internal/auth"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func run(mw echo.MiddlewareFunc, authorization string) (*httptest.ResponseRecorder, bool) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	reached := false
	_ = mw(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})(c)
	return rec, reached
}

func TestJWTAuthValidToken(t *testing.T) {
	tok, err := auth.IssueAccessToken(testSecret, "alice", auth.NewRoleSet(auth.RoleUser), time.Minute)
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got auth.Principal
	err = JWTAuth(testSecret)(func(c echo.Context) error {
		p, ok := CurrentPrincipal(c)
		require.True(t, ok)
		got = p
		return c.NoContent(http.StatusOK)
	})(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", got.Username)
	assert.True(t, got.Roles.Has(auth.RoleUser))
}

func TestJWTAuthRejections(t *testing.T) {
	mw := JWTAuth(testSecret)

	for name, header := range map[string]string{
		"missing header": "",
		"not bearer":     "Basic abc",
		"garbage token":  "Bearer not.a.jwt",
	} {
		rec, reached := run(mw, header)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, name)
		assert.False(t, reached, name)
	}

	expired, err := auth.IssueAccessToken(testSecret, "alice", auth.NewRoleSet(auth.RoleUser), -time.Minute)
	require.NoError(t, err)
	rec, reached := run(mw, "Bearer "+expired.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
}

func TestOptionalJWTAuth(t *testing.T) {
	mw := OptionalJWTAuth(testSecret)

	// Anonymous requests pass through without a principal.
	rec, reached := run(mw, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reached)

	// A presented but invalid token is still rejected.
	rec, reached = run(mw, "Bearer junk")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)

	// A valid token attaches the principal.
	tok, err := auth.IssueAccessToken(testSecret, "alice", auth.NewRoleSet(auth.RoleUser), time.Minute)
	require.NoError(t, err)
	rec, reached = run(mw, "Bearer "+tok.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reached)
}
