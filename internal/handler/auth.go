package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/olehvas/contacts-api/internal/auth"
	"github.com/olehvas/contacts-api/internal/model"
)

// AuthHandler exposes the signup/login/refresh/confirm flows over HTTP.
// It owns no business logic: every decision is made by the session manager
// and this layer only maps its error conditions to status codes.
type AuthHandler struct {
	Sessions *auth.SessionManager
}

func NewAuthHandler(s *auth.SessionManager) *AuthHandler {
	return &AuthHandler{Sessions: s}
}

// ----- DTOs -----

type signupReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type requestEmailReq struct {
	Email string `json:"email"`
}

type userPart struct {
	ID        uint64    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"create_at"`
}
type signupResp struct {
	User   userPart `json:"user"`
	Detail string   `json:"detail"`
}
type tokenResp struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

func toUserPart(u *model.User) userPart {
	return userPart{ID: u.ID, Username: u.Username, Email: u.Email, Avatar: u.Avatar, CreatedAt: u.CreatedAt}
}

func reqContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// Signup creates an unconfirmed account and queues the confirmation mail.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "Invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "Username, email and password are required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	u, err := h.Sessions.Signup(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		if err == auth.ErrAccountExists {
			return c.JSON(http.StatusConflict, echo.Map{"detail": "Account already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "Create user failed"})
	}
	return c.JSON(http.StatusCreated, signupResp{User: toUserPart(u), Detail: "User successfully created"})
}

// Login authenticates form credentials (the username field carries the
// email) and returns a fresh token pair.  Each failed precondition keeps
// its own 401 detail, matching the documented response set.
func (h *AuthHandler) Login(c echo.Context) error {
	email := strings.ToLower(strings.TrimSpace(c.FormValue("username")))
	password := c.FormValue("password")
	if email == "" || password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "Username and password are required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	pair, err := h.Sessions.Login(ctx, email, password)
	if err != nil {
		switch err {
		case auth.ErrInvalidEmail:
			return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Invalid email"})
		case auth.ErrEmailNotConfirmed:
			return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Email not confirmed"})
		case auth.ErrInvalidPassword:
			return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Invalid password"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "Login failed"})
	}
	return c.JSON(http.StatusOK, tokenResp{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken, TokenType: "bearer"})
}

// RefreshToken rotates the pair presented as a bearer refresh token.
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	header := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Not authenticated"})
	}
	raw := strings.TrimPrefix(header, "Bearer ")

	ctx, cancel := reqContext(c)
	defer cancel()

	pair, err := h.Sessions.Refresh(ctx, raw)
	if err != nil {
		switch err {
		case auth.ErrTokenInvalid:
			return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Could not validate credentials"})
		case auth.ErrInvalidScope:
			return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Invalid scope for token"})
		case auth.ErrTokenRevoked, auth.ErrUnauthorized:
			return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Invalid refresh token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "Refresh failed"})
	}
	return c.JSON(http.StatusOK, tokenResp{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken, TokenType: "bearer"})
}

// RequestEmail re-sends the confirmation mail.  The response never reveals
// whether the address is registered beyond the already-confirmed case.
func (h *AuthHandler) RequestEmail(c echo.Context) error {
	var req requestEmailReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "Email is required"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "Email is required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	confirmed, err := h.Sessions.RequestEmail(ctx, req.Email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "Request failed"})
	}
	if confirmed {
		return c.JSON(http.StatusOK, echo.Map{"message": "Your email is already confirmed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Check your email for confirmation"})
}

// ConfirmedEmail validates the tokenized confirmation link.
func (h *AuthHandler) ConfirmedEmail(c echo.Context) error {
	token := c.Param("token")

	ctx, cancel := reqContext(c)
	defer cancel()

	res, err := h.Sessions.Confirm(ctx, token)
	if err != nil {
		switch err {
		case auth.ErrTokenInvalid, auth.ErrInvalidScope:
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "Invalid token for email verification"})
		case auth.ErrVerification:
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "Verification error"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "Confirmation failed"})
	}
	if res == auth.AlreadyConfirmed {
		return c.JSON(http.StatusOK, echo.Map{"message": "Your email is already confirmed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Email confirmed"})
}
