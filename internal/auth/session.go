package auth

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/olehvas/contacts-api/internal/model"
	"github.com/olehvas/contacts-api/internal/utils"
)

// Stable error conditions raised by the session manager.  The HTTP boundary
// alone maps these to status codes; no business logic lives in that mapping.
var (
	ErrAccountExists     = errors.New("account already exists")
	ErrInvalidEmail      = errors.New("invalid email")
	ErrInvalidPassword   = errors.New("invalid password")
	ErrEmailNotConfirmed = errors.New("email not confirmed")
	ErrTokenRevoked      = errors.New("refresh token revoked")
	ErrVerification      = errors.New("verification error")
	ErrUnauthorized      = errors.New("unauthorized")
)

// UserDirectory is the source-of-truth lookup/mutation surface the session
// manager consumes.  GetByEmail returns (nil, nil) when no user exists;
// hard errors are reserved for infrastructure failures.
type UserDirectory interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, username, email, passwordHash string) (*model.User, error)
	UpdateRefreshToken(ctx context.Context, userID uint64, token string) error
	ConfirmEmail(ctx context.Context, userID uint64) error
	UpdateAvatar(ctx context.Context, email, url string) error
}

// IdentityCache is the best-effort snapshot store consulted before the
// directory on every authenticated request.  Implementations must degrade
// to always-miss when the backing service is unavailable.
type IdentityCache interface {
	Get(ctx context.Context, email string) *model.User
	Set(ctx context.Context, u *model.User)
	Delete(ctx context.Context, email string)
}

// Notifier delivers the confirmation mail.  Fire-and-forget: failures are
// logged by the implementation, never surfaced to the caller.
type Notifier interface {
	SendConfirmation(email, username, token string)
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// ConfirmResult distinguishes a first-time confirmation from the idempotent
// repeat case without resorting to errors for normal control flow.
type ConfirmResult int

const (
	Confirmed ConfirmResult = iota
	AlreadyConfirmed
)

// SessionManager issues and rotates session tokens and resolves bearer
// tokens to users.  It holds its secret, TTLs and collaborators explicitly;
// there is no package-level instance.
type SessionManager struct {
	users      UserDirectory
	cache      IdentityCache
	codec      *Codec
	notifier   Notifier
	accessTTL  time.Duration
	refreshTTL time.Duration
	emailTTL   time.Duration
	bcryptCost int
}

// NewSessionManager wires the session manager.  TTLs follow the token
// policy: short-lived access tokens, week-long refresh and confirmation
// tokens.
func NewSessionManager(users UserDirectory, cache IdentityCache, codec *Codec, notifier Notifier,
	accessTTL, refreshTTL, emailTTL time.Duration, bcryptCost int) *SessionManager {
	return &SessionManager{
		users:      users,
		cache:      cache,
		codec:      codec,
		notifier:   notifier,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		emailTTL:   emailTTL,
		bcryptCost: bcryptCost,
	}
}

// Signup creates an unconfirmed user and queues the confirmation mail.
// No session tokens are issued until the email is confirmed and the user
// logs in.
func (s *SessionManager) Signup(ctx context.Context, username, email, password string) (*model.User, error) {
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAccountExists
	}
	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	u, err := s.users.Create(ctx, username, email, hash)
	if err != nil {
		return nil, err
	}
	s.sendConfirmation(u.Email, u.Username)
	return u, nil
}

// RequestEmail re-sends the confirmation mail.  It never reveals whether
// the address is registered: an unknown email behaves exactly like a
// pending one, and only an already-confirmed account reports so.
func (s *SessionManager) RequestEmail(ctx context.Context, email string) (bool, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	if u != nil && u.Confirmed {
		return true, nil // already confirmed, nothing to send
	}
	if u != nil {
		s.sendConfirmation(u.Email, u.Username)
	}
	return false, nil
}

// Confirm validates an email-confirmation token and marks the account
// confirmed.  Confirming twice is a no-op reported as AlreadyConfirmed.
func (s *SessionManager) Confirm(ctx context.Context, token string) (ConfirmResult, error) {
	email, err := s.codec.Decode(token, ScopeEmail)
	if err != nil {
		return 0, err
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return 0, err
	}
	if u == nil {
		return 0, ErrVerification
	}
	if u.Confirmed {
		return AlreadyConfirmed, nil
	}
	if err := s.users.ConfirmEmail(ctx, u.ID); err != nil {
		return 0, err
	}
	s.cache.Delete(ctx, u.Email)
	return Confirmed, nil
}

// Login checks the credentials in a fixed order, each failure mapping to a
// distinct condition: unknown email, unconfirmed account, wrong password.
// On success a fresh access/refresh pair is minted and the refresh token is
// persisted on the user row, rotating out any previous session.
func (s *SessionManager) Login(ctx context.Context, email, password string) (TokenPair, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return TokenPair{}, err
	}
	if u == nil {
		return TokenPair{}, ErrInvalidEmail
	}
	if !u.Confirmed {
		return TokenPair{}, ErrEmailNotConfirmed
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return TokenPair{}, ErrInvalidPassword
	}
	return s.mintPair(ctx, u)
}

// Refresh exchanges a refresh token for a new pair.  The presented token
// must equal the one stored on the user row exactly; a mismatch is treated
// as reuse of a revoked token, so the stored token is cleared (forcing a
// fresh login) and the request fails with ErrTokenRevoked.  On a match the
// pair is rotated, bounding a leaked refresh token to a single use.
func (s *SessionManager) Refresh(ctx context.Context, token string) (TokenPair, error) {
	email, err := s.codec.Decode(token, ScopeRefresh)
	if err != nil {
		return TokenPair{}, err
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return TokenPair{}, err
	}
	if u == nil {
		return TokenPair{}, ErrUnauthorized
	}
	if token != u.RefreshToken {
		if err := s.users.UpdateRefreshToken(ctx, u.ID, ""); err != nil {
			return TokenPair{}, err
		}
		s.cache.Delete(ctx, u.Email)
		return TokenPair{}, ErrTokenRevoked
	}
	return s.mintPair(ctx, u)
}

// Resolve turns a bearer access token into the authenticated user.  The
// identity cache is consulted first; on a miss the directory is read and
// the snapshot cached for subsequent requests from the same session.  Any
// decode failure, wrong scope included, is reported uniformly as
// ErrUnauthorized.
func (s *SessionManager) Resolve(ctx context.Context, token string) (*model.User, error) {
	email, err := s.codec.Decode(token, ScopeAccess)
	if err != nil {
		return nil, ErrUnauthorized
	}
	if u := s.cache.Get(ctx, email); u != nil {
		return u, nil
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUnauthorized
	}
	s.cache.Set(ctx, u)
	return u, nil
}

// UpdateAvatar persists a new avatar URL and invalidates the identity
// snapshot so the next resolution reflects it.
func (s *SessionManager) UpdateAvatar(ctx context.Context, email, url string) (*model.User, error) {
	if err := s.users.UpdateAvatar(ctx, email, url); err != nil {
		return nil, err
	}
	s.cache.Delete(ctx, email)
	return s.users.GetByEmail(ctx, email)
}

// EmailToken mints an email-confirmation token for address.  Exposed for
// the notifier path and for tests that drive the confirmation flow.
func (s *SessionManager) EmailToken(email string) (string, error) {
	return s.codec.Sign(email, ScopeEmail, s.emailTTL)
}

// mintPair signs a fresh access/refresh pair for u and overwrites the
// stored refresh token.  This is the single rotation point shared by login
// and refresh.  The cache entry is dropped because the row changed.
func (s *SessionManager) mintPair(ctx context.Context, u *model.User) (TokenPair, error) {
	access, err := s.codec.Sign(u.Email, ScopeAccess, s.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.codec.Sign(u.Email, ScopeRefresh, s.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.users.UpdateRefreshToken(ctx, u.ID, refresh); err != nil {
		return TokenPair{}, err
	}
	s.cache.Delete(ctx, u.Email)
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// sendConfirmation mints an email token and hands it to the notifier.
// Token-minting failures only get logged; signup must not fail because the
// mail path is down.
func (s *SessionManager) sendConfirmation(email, username string) {
	if s.notifier == nil {
		return
	}
	token, err := s.EmailToken(email)
	if err != nil {
		log.Printf("auth: minting confirmation token for %s failed: %v", email, err)
		return
	}
	s.notifier.SendConfirmation(email, username, token)
}
