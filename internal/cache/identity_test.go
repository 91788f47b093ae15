package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olehvas/contacts-api/internal/model"
)

// A nil Redis client means the cache service is unavailable; every
// operation must degrade silently instead of panicking or failing.
func TestIdentityCache_NilClient(t *testing.T) {
	t.Parallel()

	c := NewIdentityCache(nil)
	ctx := context.Background()

	assert.Nil(t, c.Get(ctx, "bob@x.com"))
	c.Set(ctx, &model.User{ID: 1, Email: "bob@x.com"})
	c.Delete(ctx, "bob@x.com")
	assert.Nil(t, c.Get(ctx, "bob@x.com"))
}

func TestSnapshot_RoundTrip(t *testing.T) {
	t.Parallel()

	u := model.User{
		ID:           7,
		Username:     "bob",
		Email:        "bob@x.com",
		PasswordHash: "$2a$hash",
		Avatar:       "https://img.example/bob.png",
		RefreshToken: "tok",
		Confirmed:    true,
		CreatedAt:    time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	raw, err := json.Marshal(snapshot{Version: snapshotVersion, User: snapshotUser(u)})
	require.NoError(t, err)

	var snap snapshot
	require.NoError(t, json.Unmarshal(raw, &snap))
	assert.Equal(t, snapshotVersion, snap.Version)
	assert.Equal(t, u, model.User(snap.User))
}

// Payloads written by a build with a different snapshot layout must not be
// decoded into the wrong shape; the version gate turns them into misses.
func TestSnapshot_VersionGate(t *testing.T) {
	t.Parallel()

	raw := []byte(`{"v":0,"user":{"id":7,"email":"bob@x.com"}}`)

	var snap snapshot
	require.NoError(t, json.Unmarshal(raw, &snap))
	assert.NotEqual(t, snapshotVersion, snap.Version)
}

func TestKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "user:bob@x.com", key("bob@x.com"))
}
