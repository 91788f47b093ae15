package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/olehvas/contacts-api/internal/auth"
	"github.com/olehvas/contacts-api/internal/model"
)

// userContextKey is where the resolved user is stashed on the echo context.
const userContextKey = "user"

// RequireUser returns an Echo middleware that resolves a Bearer access
// token to the authenticated user via the session manager (identity cache
// first, database on a miss) and injects the user into the request context.
// Handlers behind it read the user with CurrentUser(c).  Every failure mode
// is a uniform 401 so the response does not leak why a token was rejected.
func RequireUser(sessions *auth.SessionManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Not authenticated"})
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			u, err := sessions.Resolve(c.Request().Context(), raw)
			if err != nil {
				if err == auth.ErrUnauthorized {
					return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Could not validate credentials"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "Internal server error"})
			}

			c.Set(userContextKey, u)
			return next(c)
		}
	}
}

// CurrentUser returns the user resolved by RequireUser, or nil when the
// route is not behind it.
func CurrentUser(c echo.Context) *model.User {
	u, _ := c.Get(userContextKey).(*model.User)
	return u
}
