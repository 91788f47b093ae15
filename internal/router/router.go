package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/olehvas/contacts-api/internal/handler"
)

// RegisterRoutes installs the app-wide middleware and the routes that do
// not require authentication.  CORS uses echo's permissive default (any
// origin) so browser clients can reach the API directly; the health check
// is used by load balancers and monitoring systems.
func RegisterRoutes(e *echo.Echo) {
	e.Use(echomw.CORS())
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication flows under /auth.  None of
// these routes carry the access-token middleware: signup, login and the
// email-confirmation links are reachable without a session, and
// refresh_token authenticates with the refresh token itself.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	g := e.Group("/auth")
	g.POST("/signup", a.Signup)
	g.POST("/login", a.Login)
	g.GET("/refresh_token", a.RefreshToken)
	g.POST("/request_email", a.RequestEmail)
	g.GET("/confirmed_email/:token", a.ConfirmedEmail)
}

// RegisterContacts mounts the contact CRUD and search endpoints under
// /contacts.  Each request passes the access-token middleware first (which
// resolves the user through the identity cache) and then the per-user rate
// limiter, so the limiter can key buckets by the authenticated email.
func RegisterContacts(e *echo.Echo, h *handler.ContactHandler, authn echo.MiddlewareFunc, limiter echo.MiddlewareFunc) {
	g := e.Group("/contacts", authn, limiter)
	g.GET("", h.List)
	g.GET("/", h.List)
	g.GET("/week_birthday_people", h.WeekBirthdayPeople)
	g.GET("/:id", h.GetByID)
	g.GET("/first_name/:name", h.GetByFirstName)
	g.GET("/last_name/:name", h.GetByLastName)
	g.GET("/email/:email", h.GetByEmail)
	g.POST("", h.Create)
	g.POST("/", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

// RegisterUsers mounts the profile endpoints under /users.  The avatar
// update stays outside the rate limiter, mirroring the documented surface.
func RegisterUsers(e *echo.Echo, h *handler.UserHandler, authn echo.MiddlewareFunc, limiter echo.MiddlewareFunc) {
	g := e.Group("/users", authn)
	g.GET("/me", h.Me, limiter)
	g.PATCH("/avatar", h.UpdateAvatar)
}
