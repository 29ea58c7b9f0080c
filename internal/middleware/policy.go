package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/luizfprog/betesportes-api/internal/auth"
)

// RequirePolicy gates a route group with the static endpoint policy table
// for one resource class.  The decision uses the request method and the
// roles carried by the access token; data-level company checks stay in the
// handlers, which see the individual record.  Must run after JWTAuth.
func RequirePolicy(resource string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := CurrentPrincipal(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			if !auth.EndpointAllowed(resource, c.Request().Method, p.Roles) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// RequireRole enforces that the principal holds at least one of the given
// roles.  Used for route groups outside the resource policy table, such as
// the admin registration endpoint.  Must run after JWTAuth.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := CurrentPrincipal(c)
			if !ok || !p.Roles.HasAny(roles...) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
