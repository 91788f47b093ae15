package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/olehvas/contacts-api/internal/auth"
	"github.com/olehvas/contacts-api/internal/middleware"
	"github.com/olehvas/contacts-api/internal/storage"
)

// UserHandler serves the authenticated user's own profile: reading it and
// replacing the avatar image.
type UserHandler struct {
	Sessions *auth.SessionManager
	Avatars  *storage.AvatarStore
}

func NewUserHandler(s *auth.SessionManager, a *storage.AvatarStore) *UserHandler {
	return &UserHandler{Sessions: s, Avatars: a}
}

// Me returns the profile of the authenticated user.
func (h *UserHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, toUserPart(middleware.CurrentUser(c)))
}

// UpdateAvatar uploads the multipart "file" part to the avatar store,
// persists the resulting URL and invalidates the cached identity snapshot
// so the next request sees the new avatar.
func (h *UserHandler) UpdateAvatar(c echo.Context) error {
	user := middleware.CurrentUser(c)

	if h.Avatars == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"detail": "Avatar storage is not configured"})
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "file is required"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "file could not be read"})
	}
	defer f.Close()

	ctx := c.Request().Context()

	url, err := h.Avatars.Upload(ctx, user.Email, fh.Header.Get("Content-Type"), f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "Avatar upload failed"})
	}
	updated, err := h.Sessions.UpdateAvatar(ctx, user.Email, url)
	if err != nil || updated == nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "Avatar update failed"})
	}
	return c.JSON(http.StatusOK, toUserPart(updated))
}
