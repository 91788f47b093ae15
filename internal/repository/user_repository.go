package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/olehvas/contacts-api/internal/model"
)

// UserRepo is the source of truth for user records.  Lookups use the
// null-object convention: a missing row yields (nil, nil), reserving
// errors for infrastructure failures.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

const userColumns = "id,username,email,password_hash,COALESCE(avatar,''),COALESCE(refresh_token,''),confirmed,created_at"

// Create inserts an unconfirmed user and returns the stored record.
func (r *UserRepo) Create(ctx context.Context, username, email, passwordHash string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash) VALUES (?,?,?)",
		username, email, passwordHash)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &model.User{
		ID:           uint64(id),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// GetByEmail fetches a user by normalized email, or nil when absent.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1",
		email).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Avatar, &u.RefreshToken, &u.Confirmed, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateRefreshToken overwrites the stored refresh token.  An empty token
// clears the column, which is how a forced logout is recorded.
func (r *UserRepo) UpdateRefreshToken(ctx context.Context, userID uint64, token string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token=NULLIF(?,'') WHERE id=?",
		token, userID)
	return err
}

// ConfirmEmail marks the user's email address as confirmed.
func (r *UserRepo) ConfirmEmail(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET confirmed=1 WHERE id=?",
		userID)
	return err
}

// UpdateAvatar stores a new avatar URL for the user with the given email.
func (r *UserRepo) UpdateAvatar(ctx context.Context, email, url string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET avatar=? WHERE email=?",
		url, email)
	return err
}
