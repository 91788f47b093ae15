package handler

import (
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/olehvas/contacts-api/internal/middleware"
	"github.com/olehvas/contacts-api/internal/model"
	"github.com/olehvas/contacts-api/internal/repository"
)

// ContactHandler serves the per-user contact CRUD and search endpoints.
// Every route expects RequireUser to have resolved the caller already.
type ContactHandler struct {
	Contacts *repository.ContactRepo
}

func NewContactHandler(r *repository.ContactRepo) *ContactHandler {
	return &ContactHandler{Contacts: r}
}

// ----- DTOs -----

var phoneRe = regexp.MustCompile(`^\+380\(\d{2}\)\d{3}-\d{2}-\d{2}$`)

const birthDateLayout = "2006-01-02"

type contactReq struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	BirthDate      string `json:"birth_date"`
	AdditionalData string `json:"additional_data"`
}

type contactResp struct {
	ID             uint64 `json:"id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	BirthDate      string `json:"birth_date"`
	AdditionalData string `json:"additional_data"`
}

func toContactResp(ct *model.Contact) contactResp {
	return contactResp{
		ID:             ct.ID,
		FirstName:      ct.FirstName,
		LastName:       ct.LastName,
		Email:          ct.Email,
		Phone:          ct.Phone,
		BirthDate:      ct.BirthDate.Format(birthDateLayout),
		AdditionalData: ct.AdditionalData,
	}
}

// parse validates the request body and converts it to a model.Contact
// owned by userID.  The error string is suitable for the response detail.
func (req *contactReq) parse(userID uint64) (*model.Contact, string) {
	if req.FirstName == "" || req.LastName == "" || req.Email == "" {
		return nil, "first_name, last_name and email are required"
	}
	if !phoneRe.MatchString(req.Phone) {
		return nil, "phone must match +380(XX)XXX-XX-XX"
	}
	bd, err := time.Parse(birthDateLayout, req.BirthDate)
	if err != nil {
		return nil, "birth_date must be formatted as YYYY-MM-DD"
	}
	return &model.Contact{
		UserID:         userID,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		Phone:          req.Phone,
		BirthDate:      bd,
		AdditionalData: req.AdditionalData,
	}, ""
}

// List returns the caller's contacts with limit (max 100) and skip paging.
func (h *ContactHandler) List(c echo.Context) error {
	user := middleware.CurrentUser(c)

	limit := 10
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "limit must be between 1 and 100"})
		}
		limit = n
	}
	skip := 0
	if v := c.QueryParam("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "skip must be a non-negative integer"})
		}
		skip = n
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	contacts, err := h.Contacts.List(ctx, user.ID, limit, skip)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "Query failed"})
	}
	out := make([]contactResp, 0, len(contacts))
	for i := range contacts {
		out = append(out, toContactResp(&contacts[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// WeekBirthdayPeople lists contacts with a birthday in the next seven days.
func (h *ContactHandler) WeekBirthdayPeople(c echo.Context) error {
	user := middleware.CurrentUser(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	contacts, err := h.Contacts.WeekBirthdays(ctx, user.ID, time.Now().UTC())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "Query failed"})
	}
	out := make([]contactResp, 0, len(contacts))
	for i := range contacts {
		out = append(out, toContactResp(&contacts[i]))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ContactHandler) respondOne(c echo.Context, ct *model.Contact, err error) error {
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "Query failed"})
	}
	if ct == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"detail": "Not Found"})
	}
	return c.JSON(http.StatusOK, toContactResp(ct))
}

// GetByID returns one contact by numeric id.
func (h *ContactHandler) GetByID(c echo.Context) error {
	user := middleware.CurrentUser(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "id must be a positive integer"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	ct, err := h.Contacts.GetByID(ctx, user.ID, id)
	return h.respondOne(c, ct, err)
}

// GetByFirstName returns the first contact matching the first name.
func (h *ContactHandler) GetByFirstName(c echo.Context) error {
	user := middleware.CurrentUser(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	ct, err := h.Contacts.GetByFirstName(ctx, user.ID, c.Param("name"))
	return h.respondOne(c, ct, err)
}

// GetByLastName returns the first contact matching the last name.
func (h *ContactHandler) GetByLastName(c echo.Context) error {
	user := middleware.CurrentUser(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	ct, err := h.Contacts.GetByLastName(ctx, user.ID, c.Param("name"))
	return h.respondOne(c, ct, err)
}

// GetByEmail returns the first contact matching the email address.
func (h *ContactHandler) GetByEmail(c echo.Context) error {
	user := middleware.CurrentUser(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	ct, err := h.Contacts.GetByEmail(ctx, user.ID, c.Param("email"))
	return h.respondOne(c, ct, err)
}

// Create adds a contact to the caller's address book.
func (h *ContactHandler) Create(c echo.Context) error {
	user := middleware.CurrentUser(c)
	var req contactReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "Invalid body"})
	}
	ct, detail := req.parse(user.ID)
	if detail != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": detail})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	stored, err := h.Contacts.Create(ctx, ct)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "Create contact failed"})
	}
	return c.JSON(http.StatusCreated, toContactResp(stored))
}

// Update rewrites an existing contact.
func (h *ContactHandler) Update(c echo.Context) error {
	user := middleware.CurrentUser(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "id must be a positive integer"})
	}
	var req contactReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "Invalid body"})
	}
	ct, detail := req.parse(user.ID)
	if detail != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": detail})
	}
	ct.ID = id

	ctx, cancel := reqContext(c)
	defer cancel()

	updated, err := h.Contacts.Update(ctx, ct)
	return h.respondOne(c, updated, err)
}

// Delete removes a contact, answering 204 on success and 404 when the
// contact is not in the caller's address book.
func (h *ContactHandler) Delete(c echo.Context) error {
	user := middleware.CurrentUser(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "id must be a positive integer"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	found, err := h.Contacts.Delete(ctx, user.ID, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "Delete contact failed"})
	}
	if !found {
		return c.JSON(http.StatusNotFound, echo.Map{"detail": "Not Found"})
	}
	return c.NoContent(http.StatusNoContent)
}
