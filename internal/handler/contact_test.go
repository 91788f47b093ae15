package handler_test

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olehvas/contacts-api/internal/repository"
)

const contactCols = "id,user_id,first_name,last_name,email,phone,birth_date,COALESCE(additional_data,''),created_at,updated_at"

var contactColNames = []string{
	"id", "user_id", "first_name", "last_name", "email", "phone",
	"birth_date", "COALESCE(additional_data,'')", "created_at", "updated_at",
}

// contactApp logs in a confirmed user and returns the app, the access token
// and the sqlmock handle behind the contact repository.
func contactApp(t *testing.T) (*app, string, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	a := newApp(t, repository.NewContactRepo(db))
	a.signup(t, "bob", "bob@x.com", "pw")
	a.do(httptest.NewRequest(http.MethodGet, "/auth/confirmed_email/"+a.notifier.tokens["bob@x.com"], nil))
	rec := a.login(t, "bob@x.com", "pw")
	require.Equal(t, http.StatusOK, rec.Code)
	return a, decodeJSON(t, rec)["access_token"].(string), mock
}

func authed(req *http.Request, token string) *http.Request {
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	return req
}

func TestContacts_RequireAuthentication(t *testing.T) {
	a := newApp(t, nil)

	rec := a.do(httptest.NewRequest(http.MethodGet, "/contacts", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Not authenticated", decodeJSON(t, rec)["detail"])
}

func TestContacts_CreateValidation(t *testing.T) {
	a, token, _ := contactApp(t)

	cases := []struct {
		name   string
		body   string
		detail string
	}{
		{
			name:   "missing names",
			body:   `{"email":"a@b.com","phone":"+380(67)123-45-67","birth_date":"1990-05-01"}`,
			detail: "first_name, last_name and email are required",
		},
		{
			name:   "bad phone",
			body:   `{"first_name":"A","last_name":"B","email":"a@b.com","phone":"12345","birth_date":"1990-05-01"}`,
			detail: "phone must match +380(XX)XXX-XX-XX",
		},
		{
			name:   "bad birth date",
			body:   `{"first_name":"A","last_name":"B","email":"a@b.com","phone":"+380(67)123-45-67","birth_date":"01.05.1990"}`,
			detail: "birth_date must be formatted as YYYY-MM-DD",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/contacts", strings.NewReader(tc.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := a.do(authed(req, token))
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tc.detail, decodeJSON(t, rec)["detail"])
		})
	}
}

func TestContacts_CreateAndGet(t *testing.T) {
	a, token, mock := contactApp(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO contacts")).
		WithArgs(uint64(1), "Alice", "Smith", "alice@x.com", "+380(67)123-45-67", sqlmock.AnyArg(), "").
		WillReturnResult(sqlmock.NewResult(7, 1))

	body := `{"first_name":"Alice","last_name":"Smith","email":"alice@x.com","phone":"+380(67)123-45-67","birth_date":"1990-05-01"}`
	req := httptest.NewRequest(http.MethodPost, "/contacts", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := a.do(authed(req, token))
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeJSON(t, rec)
	assert.Equal(t, float64(7), created["id"])
	assert.Equal(t, "1990-05-01", created["birth_date"])

	bd := time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC)
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+contactCols+" FROM contacts WHERE user_id=? AND id=?")).
		WithArgs(uint64(1), uint64(7)).
		WillReturnRows(sqlmock.NewRows(contactColNames).
			AddRow(7, 1, "Alice", "Smith", "alice@x.com", "+380(67)123-45-67", bd, "", now, now))

	rec = a.do(authed(httptest.NewRequest(http.MethodGet, "/contacts/7", nil), token))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Alice", decodeJSON(t, rec)["first_name"])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContacts_GetMissing(t *testing.T) {
	a, token, mock := contactApp(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+contactCols+" FROM contacts WHERE user_id=? AND id=?")).
		WithArgs(uint64(1), uint64(99)).
		WillReturnRows(sqlmock.NewRows(contactColNames))

	rec := a.do(authed(httptest.NewRequest(http.MethodGet, "/contacts/99", nil), token))
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", decodeJSON(t, rec)["detail"])
}

func TestContacts_Delete(t *testing.T) {
	a, token, mock := contactApp(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM contacts WHERE user_id=? AND id=?")).
		WithArgs(uint64(1), uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	rec := a.do(authed(httptest.NewRequest(http.MethodDelete, "/contacts/7", nil), token))
	require.Equal(t, http.StatusNoContent, rec.Code)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM contacts WHERE user_id=? AND id=?")).
		WithArgs(uint64(1), uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	rec = a.do(authed(httptest.NewRequest(http.MethodDelete, "/contacts/7", nil), token))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
