package middleware // middleware provides shared request processing for handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/luizfprog/betesportes-api/internal/auth"
)

// principalKey is the echo context key under which the authenticated
// principal is stored.  Handlers read it through CurrentPrincipal and pass
// the principal explicitly into every policy check; nothing below the
// middleware reaches back into the request for identity.
const principalKey = "principal"

// JWTAuth returns a middleware that requires a valid Bearer access token.
// On success the token's subject and roles are stored in the context as an
// auth.Principal.  Every failure (missing header, bad signature, expiry,
// malformed claims) answers with the same 401 body so clients learn nothing
// about why the token was rejected.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			id, err := auth.ParseAccessToken(secret, strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			c.Set(principalKey, auth.Principal{Username: id.Username, Roles: id.Roles})
			return next(c)
		}
	}
}

// OptionalJWTAuth is JWTAuth for routes that also serve anonymous callers,
// such as self-registration.  A missing Authorization header passes through
// without a principal; a present but invalid one is still rejected, so a
// caller cannot downgrade itself to anonymous by sending garbage.
func OptionalJWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return next(c)
			}
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			id, err := auth.ParseAccessToken(secret, strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			c.Set(principalKey, auth.Principal{Username: id.Username, Roles: id.Roles})
			return next(c)
		}
	}
}

// CurrentPrincipal returns the principal stored by JWTAuth, if any.
func CurrentPrincipal(c echo.Context) (auth.Principal, bool) {
	p, ok := c.Get(principalKey).(auth.Principal)
	return p, ok
}
