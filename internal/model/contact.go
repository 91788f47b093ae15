package model

import "time"

// Contact models a row in the `contacts` table. Every contact
// belongs to exactly one user; lookups are always scoped by
// UserID so one user can never read another user's address book.
//
// Fields:
//  ID             – primary key identifier.
//  UserID         – owner of the contact (references users.id).
//  FirstName      – contact's first name.
//  LastName       – contact's last name.
//  Email          – contact's email address (not unique; several
//                   users may store the same person).
//  Phone          – phone number in the +380(XX)XXX-XX-XX format.
//  BirthDate      – date of birth; time component is always zero.
//  AdditionalData – free-form notes (empty if unset).
//  CreatedAt      – timestamp of creation.
//  UpdatedAt      – timestamp of last update.
type Contact struct {
	ID             uint64    // contacts.id
	UserID         uint64    // contacts.user_id
	FirstName      string    // contacts.first_name
	LastName       string    // contacts.last_name
	Email          string    // contacts.email
	Phone          string    // contacts.phone
	BirthDate      time.Time // contacts.birth_date
	AdditionalData string    // contacts.additional_data
	CreatedAt      time.Time // contacts.created_at
	UpdatedAt      time.Time // contacts.updated_at
}
