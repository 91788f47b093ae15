package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olehvas/contacts-api/internal/auth"
	"github.com/olehvas/contacts-api/internal/handler"
	"github.com/olehvas/contacts-api/internal/middleware"
	"github.com/olehvas/contacts-api/internal/model"
	"github.com/olehvas/contacts-api/internal/repository"
	"github.com/olehvas/contacts-api/internal/router"
)

// --- in-memory collaborators ---

type memDirectory struct {
	users  map[string]*model.User
	nextID uint64
}

func (d *memDirectory) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, ok := d.users[email]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (d *memDirectory) Create(ctx context.Context, username, email, passwordHash string) (*model.User, error) {
	d.nextID++
	u := &model.User{ID: d.nextID, Username: username, Email: email, PasswordHash: passwordHash, CreatedAt: time.Now().UTC()}
	d.users[email] = u
	cp := *u
	return &cp, nil
}

func (d *memDirectory) byID(id uint64) *model.User {
	for _, u := range d.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (d *memDirectory) UpdateRefreshToken(ctx context.Context, userID uint64, token string) error {
	if u := d.byID(userID); u != nil {
		u.RefreshToken = token
	}
	return nil
}

func (d *memDirectory) ConfirmEmail(ctx context.Context, userID uint64) error {
	if u := d.byID(userID); u != nil {
		u.Confirmed = true
	}
	return nil
}

func (d *memDirectory) UpdateAvatar(ctx context.Context, email, url string) error {
	if u, ok := d.users[email]; ok {
		u.Avatar = url
	}
	return nil
}

type memCache struct{ entries map[string]*model.User }

func (c *memCache) Get(ctx context.Context, email string) *model.User {
	u, ok := c.entries[email]
	if !ok {
		return nil
	}
	cp := *u
	return &cp
}
func (c *memCache) Set(ctx context.Context, u *model.User) { cp := *u; c.entries[u.Email] = &cp }
func (c *memCache) Delete(ctx context.Context, email string) { delete(c.entries, email) }

type memNotifier struct{ tokens map[string]string }

func (n *memNotifier) SendConfirmation(email, username, token string) { n.tokens[email] = token }

// --- harness ---

type app struct {
	e        *echo.Echo
	notifier *memNotifier
}

func newApp(t *testing.T, contacts *repository.ContactRepo) *app {
	t.Helper()
	dir := &memDirectory{users: map[string]*model.User{}}
	notifier := &memNotifier{tokens: map[string]string{}}
	sessions := auth.NewSessionManager(
		dir,
		&memCache{entries: map[string]*model.User{}},
		auth.NewCodec("test-secret"),
		notifier,
		15*time.Minute, 7*24*time.Hour, 7*24*time.Hour, 4,
	)

	passthrough := func(next echo.HandlerFunc) echo.HandlerFunc { return next }

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(sessions))
	router.RegisterContacts(e, handler.NewContactHandler(contacts), middleware.RequireUser(sessions), passthrough)
	router.RegisterUsers(e, handler.NewUserHandler(sessions, nil), middleware.RequireUser(sessions), passthrough)
	return &app{e: e, notifier: notifier}
}

func (a *app) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *app) signup(t *testing.T, username, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	body := `{"username":"` + username + `","email":"` + email + `","password":"` + password + `"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return a.do(req)
}

func (a *app) login(t *testing.T, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{"username": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return a.do(req)
}

func (a *app) refresh(t *testing.T, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/auth/refresh_token", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	return a.do(req)
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

// --- tests ---

// Signup, login before confirmation, confirm, login: the full happy path.
func TestAuthFlow_SignupConfirmLogin(t *testing.T) {
	a := newApp(t, nil)

	rec := a.signup(t, "bob", "bob@x.com", "pw")
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeJSON(t, rec)
	assert.Equal(t, "User successfully created", body["detail"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "bob@x.com", user["email"])

	rec = a.login(t, "bob@x.com", "pw")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Email not confirmed", decodeJSON(t, rec)["detail"])

	token := a.notifier.tokens["bob@x.com"]
	require.NotEmpty(t, token, "signup must have queued a confirmation mail")
	rec = a.do(httptest.NewRequest(http.MethodGet, "/auth/confirmed_email/"+token, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Email confirmed", decodeJSON(t, rec)["message"])

	// Confirming again is an idempotent no-op.
	rec = a.do(httptest.NewRequest(http.MethodGet, "/auth/confirmed_email/"+token, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Your email is already confirmed", decodeJSON(t, rec)["message"])

	rec = a.login(t, "bob@x.com", "pw")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeJSON(t, rec)
	assert.NotEmpty(t, body["access_token"])
	assert.NotEmpty(t, body["refresh_token"])
	assert.Equal(t, "bearer", body["token_type"])
}

// Replaying a rotated-out refresh token must be rejected as revoked.
func TestAuthFlow_RefreshReuse(t *testing.T) {
	a := newApp(t, nil)

	a.signup(t, "bob", "bob@x.com", "pw")
	rec := a.do(httptest.NewRequest(http.MethodGet, "/auth/confirmed_email/"+a.notifier.tokens["bob@x.com"], nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.login(t, "bob@x.com", "pw")
	require.Equal(t, http.StatusOK, rec.Code)
	first := decodeJSON(t, rec)["refresh_token"].(string)

	// Claim timestamps have second resolution; wait so the rotated pair is
	// a distinct token string.
	time.Sleep(1100 * time.Millisecond)

	rec = a.refresh(t, first)
	require.Equal(t, http.StatusOK, rec.Code)
	second := decodeJSON(t, rec)["refresh_token"].(string)
	require.NotEqual(t, first, second)

	rec = a.refresh(t, first)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid refresh token", decodeJSON(t, rec)["detail"])

	// The forced logout also invalidated the fresh token.
	rec = a.refresh(t, second)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthFlow_RefreshWithAccessToken(t *testing.T) {
	a := newApp(t, nil)

	a.signup(t, "bob", "bob@x.com", "pw")
	a.do(httptest.NewRequest(http.MethodGet, "/auth/confirmed_email/"+a.notifier.tokens["bob@x.com"], nil))
	rec := a.login(t, "bob@x.com", "pw")
	require.Equal(t, http.StatusOK, rec.Code)
	access := decodeJSON(t, rec)["access_token"].(string)

	rec = a.refresh(t, access)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid scope for token", decodeJSON(t, rec)["detail"])
}

func TestSignup_DuplicateAccount(t *testing.T) {
	a := newApp(t, nil)

	rec := a.signup(t, "bob", "bob@x.com", "pw")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = a.signup(t, "bob", "bob@x.com", "pw")
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Account already exists", decodeJSON(t, rec)["detail"])
}

func TestConfirmedEmail_UnknownUser(t *testing.T) {
	a := newApp(t, nil)

	// A structurally valid token whose subject was never registered.
	a.signup(t, "bob", "bob@x.com", "pw")
	other := newApp(t, nil)
	other.signup(t, "eve", "eve@y.com", "pw")
	token := other.notifier.tokens["eve@y.com"]

	rec := a.do(httptest.NewRequest(http.MethodGet, "/auth/confirmed_email/"+token, nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Verification error", decodeJSON(t, rec)["detail"])
}

func TestConfirmedEmail_GarbageToken(t *testing.T) {
	a := newApp(t, nil)

	rec := a.do(httptest.NewRequest(http.MethodGet, "/auth/confirmed_email/garbage", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid token for email verification", decodeJSON(t, rec)["detail"])
}

func TestRequestEmail_NeverRevealsRegistration(t *testing.T) {
	a := newApp(t, nil)
	a.signup(t, "bob", "bob@x.com", "pw")

	for _, email := range []string{"bob@x.com", "ghost@x.com"} {
		req := httptest.NewRequest(http.MethodPost, "/auth/request_email", strings.NewReader(`{"email":"`+email+`"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := a.do(req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Check your email for confirmation", decodeJSON(t, rec)["message"],
			"registered and unknown addresses must be indistinguishable")
	}

	a.do(httptest.NewRequest(http.MethodGet, "/auth/confirmed_email/"+a.notifier.tokens["bob@x.com"], nil))
	req := httptest.NewRequest(http.MethodPost, "/auth/request_email", strings.NewReader(`{"email":"bob@x.com"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := a.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Your email is already confirmed", decodeJSON(t, rec)["message"])
}

// Browser clients preflight cross-origin requests; the server must answer
// with the permissive CORS headers on every route.
func TestCORSPreflight(t *testing.T) {
	a := newApp(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/auth/login", nil)
	req.Header.Set(echo.HeaderOrigin, "https://app.example")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	rec := a.do(req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Contains(t, rec.Header().Get(echo.HeaderAccessControlAllowMethods), http.MethodPost)
}

func TestProtectedRoute_RequiresAccessToken(t *testing.T) {
	a := newApp(t, nil)

	rec := a.do(httptest.NewRequest(http.MethodGet, "/users/me", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	a.signup(t, "bob", "bob@x.com", "pw")
	a.do(httptest.NewRequest(http.MethodGet, "/auth/confirmed_email/"+a.notifier.tokens["bob@x.com"], nil))
	rec = a.login(t, "bob@x.com", "pw")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeJSON(t, rec)

	// A refresh token must not open protected routes.
	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+body["refresh_token"].(string))
	rec = a.do(req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+body["access_token"].(string))
	rec = a.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bob@x.com", decodeJSON(t, rec)["email"])
}
