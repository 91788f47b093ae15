package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/olehvas/contacts-api/internal/model"
)

// ContactRepo owns queries against the 'contacts' table.  Every query is
// scoped by user_id; a contact belonging to another user is simply not
// found.  Single-row lookups return (nil, nil) when nothing matches.
type ContactRepo struct{ DB *sql.DB }

func NewContactRepo(db *sql.DB) *ContactRepo { return &ContactRepo{DB: db} }

const contactColumns = "id,user_id,first_name,last_name,email,phone,birth_date,COALESCE(additional_data,''),created_at,updated_at"

func scanContact(row *sql.Row) (*model.Contact, error) {
	var ct model.Contact
	err := row.Scan(&ct.ID, &ct.UserID, &ct.FirstName, &ct.LastName, &ct.Email, &ct.Phone,
		&ct.BirthDate, &ct.AdditionalData, &ct.CreatedAt, &ct.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ct, nil
}

// List returns the user's contacts ordered by id with limit/offset paging.
func (r *ContactRepo) List(ctx context.Context, userID uint64, limit, offset int) ([]model.Contact, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+contactColumns+" FROM contacts WHERE user_id=? ORDER BY id LIMIT ? OFFSET ?",
		userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Contact, 0, limit)
	for rows.Next() {
		var ct model.Contact
		if err := rows.Scan(&ct.ID, &ct.UserID, &ct.FirstName, &ct.LastName, &ct.Email, &ct.Phone,
			&ct.BirthDate, &ct.AdditionalData, &ct.CreatedAt, &ct.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, ct)
	}
	return out, rows.Err()
}

// GetByID fetches one contact by id within the user's address book.
func (r *ContactRepo) GetByID(ctx context.Context, userID, contactID uint64) (*model.Contact, error) {
	return scanContact(r.DB.QueryRowContext(ctx,
		"SELECT "+contactColumns+" FROM contacts WHERE user_id=? AND id=? LIMIT 1",
		userID, contactID))
}

// GetByFirstName returns the first contact with the given first name.
func (r *ContactRepo) GetByFirstName(ctx context.Context, userID uint64, firstName string) (*model.Contact, error) {
	return scanContact(r.DB.QueryRowContext(ctx,
		"SELECT "+contactColumns+" FROM contacts WHERE user_id=? AND first_name=? LIMIT 1",
		userID, firstName))
}

// GetByLastName returns the first contact with the given last name.
func (r *ContactRepo) GetByLastName(ctx context.Context, userID uint64, lastName string) (*model.Contact, error) {
	return scanContact(r.DB.QueryRowContext(ctx,
		"SELECT "+contactColumns+" FROM contacts WHERE user_id=? AND last_name=? LIMIT 1",
		userID, lastName))
}

// GetByEmail returns the first contact with the given email address.
func (r *ContactRepo) GetByEmail(ctx context.Context, userID uint64, email string) (*model.Contact, error) {
	return scanContact(r.DB.QueryRowContext(ctx,
		"SELECT "+contactColumns+" FROM contacts WHERE user_id=? AND email=? LIMIT 1",
		userID, email))
}

// WeekBirthdays returns contacts whose birthday falls within the seven days
// starting at today.  Candidates are filtered in Go with calendar-aware
// date arithmetic so year and month boundaries are handled correctly.
func (r *ContactRepo) WeekBirthdays(ctx context.Context, userID uint64, today time.Time) ([]model.Contact, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+contactColumns+" FROM contacts WHERE user_id=?",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)

	out := []model.Contact{}
	for rows.Next() {
		var ct model.Contact
		if err := rows.Scan(&ct.ID, &ct.UserID, &ct.FirstName, &ct.LastName, &ct.Email, &ct.Phone,
			&ct.BirthDate, &ct.AdditionalData, &ct.CreatedAt, &ct.UpdatedAt); err != nil {
			return nil, err
		}
		if birthdayInWindow(ct.BirthDate, start, end) {
			out = append(out, ct)
		}
	}
	return out, rows.Err()
}

// birthdayInWindow reports whether the next occurrence of bd's month/day
// lands inside [start, end).  The occurrence in start's year and the one in
// the following year are both considered, so a window spanning New Year
// still catches early-January birthdays.  Feb 29 birthdays normalize to
// Mar 1 in non-leap years, which time.Date handles for us.
func birthdayInWindow(bd, start, end time.Time) bool {
	for _, year := range []int{start.Year(), start.Year() + 1} {
		occ := time.Date(year, bd.Month(), bd.Day(), 0, 0, 0, 0, time.UTC)
		if !occ.Before(start) && occ.Before(end) {
			return true
		}
	}
	return false
}

// Create inserts a contact and returns it with the assigned id.
func (r *ContactRepo) Create(ctx context.Context, ct *model.Contact) (*model.Contact, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO contacts (user_id, first_name, last_name, email, phone, birth_date, additional_data) VALUES (?,?,?,?,?,?,NULLIF(?,''))",
		ct.UserID, ct.FirstName, ct.LastName, ct.Email, ct.Phone, ct.BirthDate, ct.AdditionalData)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	stored := *ct
	stored.ID = uint64(id)
	return &stored, nil
}

// Update rewrites all editable fields of a contact.  Returns (nil, nil)
// when the contact does not exist in the user's address book.
func (r *ContactRepo) Update(ctx context.Context, ct *model.Contact) (*model.Contact, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE contacts SET first_name=?, last_name=?, email=?, phone=?, birth_date=?, additional_data=NULLIF(?,'') WHERE user_id=? AND id=?",
		ct.FirstName, ct.LastName, ct.Email, ct.Phone, ct.BirthDate, ct.AdditionalData, ct.UserID, ct.ID)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// Distinguish "no such row" from "row unchanged".
		return r.GetByID(ctx, ct.UserID, ct.ID)
	}
	return ct, nil
}

// Delete removes a contact.  The bool result reports whether a row existed.
func (r *ContactRepo) Delete(ctx context.Context, userID, contactID uint64) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM contacts WHERE user_id=? AND id=?",
		userID, contactID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
