package model

import "time"

// User represents an application user record as stored in the
// `users` table. Each field corresponds to a column in the
// database. The json tags are omitted here because these structs
// are primarily used internally by the repository and session
// layers; handlers define separate response types with appropriate
// JSON tags.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – display name chosen at signup.
//  Email        – unique email address; the subject of every token.
//  PasswordHash – bcrypt hashed password.
//  Avatar       – URL of the user's avatar image (empty if unset).
//  RefreshToken – the currently valid refresh token, mirrored here
//                 for rotation/revocation checking. Empty when no
//                 session is active or after a forced logout.
//  Confirmed    – whether the email address has been confirmed.
//  CreatedAt    – timestamp of creation.
type User struct {
	ID           uint64    // users.id
	Username     string    // users.username
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Avatar       string    // users.avatar
	RefreshToken string    // users.refresh_token
	Confirmed    bool      // users.confirmed
	CreatedAt    time.Time // users.created_at
}
