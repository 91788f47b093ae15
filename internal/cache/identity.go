// Package cache provides the short-lived identity cache that sits in front
// of the user table on the authenticated-request path.  Entries are
// read-through, write-invalidate shadows of the database row: every code
// path that mutates a user must call Delete for that user's email.
package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/olehvas/contacts-api/internal/model"
)

// snapshotVersion guards the cached encoding.  Entries written by an older
// or newer build with a different layout are treated as misses instead of
// being decoded into the wrong shape.
const snapshotVersion = 1

// DefaultTTL bounds how stale an identity snapshot can get if an
// invalidation is ever missed.
const DefaultTTL = 900 * time.Second

// snapshot is the versioned wire form of a cached user.  The json tags are
// the schema; renaming a field here is a version bump.
type snapshot struct {
	Version int          `json:"v"`
	User    snapshotUser `json:"user"`
}

type snapshotUser struct {
	ID           uint64    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Avatar       string    `json:"avatar"`
	RefreshToken string    `json:"refresh_token"`
	Confirmed    bool      `json:"confirmed"`
	CreatedAt    time.Time `json:"created_at"`
}

// IdentityCache stores serialized user snapshots in Redis keyed by
// "user:"+email.  All operations are best-effort: a nil client or an
// unreachable server degrades to always-miss so that callers fall through
// to the database rather than rejecting requests.
type IdentityCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewIdentityCache wraps a Redis client.  The client may be nil, in which
// case every Get is a miss and Set/Delete are no-ops.
func NewIdentityCache(rdb *redis.Client) *IdentityCache {
	return &IdentityCache{rdb: rdb, ttl: DefaultTTL}
}

func key(email string) string { return "user:" + email }

// Get returns the cached user for email, or nil on a miss.  Redis errors
// and undecodable payloads are logged and reported as misses.
func (c *IdentityCache) Get(ctx context.Context, email string) *model.User {
	if c == nil || c.rdb == nil {
		return nil
	}
	raw, err := c.rdb.Get(ctx, key(email)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("identity-cache: get %q failed: %v", key(email), err)
		}
		return nil
	}
	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil || snap.Version != snapshotVersion {
		// Stale encoding from another build; let the caller reload from the DB.
		return nil
	}
	u := model.User(snap.User)
	return &u
}

// Set stores a snapshot of u with the cache TTL.  Failures are logged and
// swallowed; a cache write must never fail the request that triggered it.
func (c *IdentityCache) Set(ctx context.Context, u *model.User) {
	if c == nil || c.rdb == nil || u == nil {
		return
	}
	raw, err := json.Marshal(snapshot{Version: snapshotVersion, User: snapshotUser(*u)})
	if err != nil {
		log.Printf("identity-cache: marshal user %d failed: %v", u.ID, err)
		return
	}
	if err := c.rdb.Set(ctx, key(u.Email), raw, c.ttl).Err(); err != nil {
		log.Printf("identity-cache: set %q failed: %v", key(u.Email), err)
	}
}

// Delete drops the snapshot for email.  Called after any mutation of the
// underlying row (confirmation, token rotation, avatar change) so the next
// resolution reads fresh state.
func (c *IdentityCache) Delete(ctx context.Context, email string) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, key(email)).Err(); err != nil {
		log.Printf("identity-cache: delete %q failed: %v", key(email), err)
	}
}
