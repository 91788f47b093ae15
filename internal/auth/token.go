// Package auth implements the session-token subsystem: signing and
// verifying scoped JWTs, the login/refresh/confirm protocol, and resolving
// a bearer access token to a user through the identity cache.
package auth

import (
	"errors"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Scope names the purpose a token was minted for.  Every operation that
// accepts a token requires one specific scope; tokens never cross over.
type Scope string

const (
	ScopeAccess  Scope = "access"
	ScopeRefresh Scope = "refresh"
	ScopeEmail   Scope = "email-confirmation"
)

var (
	// ErrTokenInvalid covers malformed payloads, bad signatures and expired
	// tokens alike.  Callers must not be able to tell a forged token from an
	// expired one; the distinction is only ever logged.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrInvalidScope is returned when a structurally valid token carries
	// the wrong scope for the operation.
	ErrInvalidScope = errors.New("invalid scope for token")
)

// Codec signs and verifies compact claim-bearing tokens with a single HS256
// secret.  It is a pure value: safe for concurrent use, no hidden state.
type Codec struct {
	secret []byte
	now    func() time.Time // injectable clock for tests
}

// NewCodec builds a Codec around the signing secret.
func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret), now: time.Now}
}

// Sign mints a token for subject (the user's email) with the given scope
// and lifetime.  Claims: sub, scope, iat, exp.
func (c *Codec) Sign(subject string, scope Scope, ttl time.Duration) (string, error) {
	now := c.now().UTC()
	claims := jwt.MapClaims{
		"sub":   subject,
		"scope": string(scope),
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(c.secret)
}

// Decode verifies the signature and expiry of raw and checks that its scope
// matches want.  On success it returns the subject email.  Signature,
// format and expiry problems all surface as ErrTokenInvalid; a valid token
// with another scope surfaces as ErrInvalidScope.
func (c *Codec) Decode(raw string, want Scope) (string, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Reject tokens signed with anything but HMAC to avoid algorithm
		// confusion against our symmetric secret.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return c.now() }))
	if err != nil || !tok.Valid {
		log.Printf("auth: token rejected: %v", err)
		return "", ErrTokenInvalid
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrTokenInvalid
	}
	if scope, _ := claims["scope"].(string); scope != string(want) {
		return "", ErrInvalidScope
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", ErrTokenInvalid
	}
	return sub, nil
}
