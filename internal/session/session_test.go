package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaimenoain/ceeq/internal/model"
)

func newTestRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := NewRedisStore("redis://"+mr.Addr(), ttl)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func sampleSession() Session {
	return Session{
		UserID:        "user-1",
		WorkspaceID:   "ws-1",
		WorkspaceType: model.WorkspaceSearcher,
		Role:          model.RoleAdmin,
		Email:         "casey@example.com",
	}
}

func TestRedisStore_IssueAndLookup(t *testing.T) {
	store, _ := newTestRedisStore(t, time.Hour)
	ctx := context.Background()

	token, err := store.Issue(ctx, sampleSession())
	require.NoError(t, err)
	assert.Len(t, token, 64)

	sess, err := store.Lookup(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "user-1", sess.UserID)
	assert.Equal(t, model.WorkspaceSearcher, sess.WorkspaceType)
	assert.False(t, sess.IssuedAt.IsZero())
}

func TestRedisStore_Lookup_UnknownToken(t *testing.T) {
	store, _ := newTestRedisStore(t, time.Hour)

	sess, err := store.Lookup(context.Background(), "not-a-token")
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestRedisStore_Lookup_Expired(t *testing.T) {
	store, mr := newTestRedisStore(t, time.Minute)
	ctx := context.Background()

	token, err := store.Issue(ctx, sampleSession())
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	sess, err := store.Lookup(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestRedisStore_Revoke(t *testing.T) {
	store, _ := newTestRedisStore(t, time.Hour)
	ctx := context.Background()

	token, err := store.Issue(ctx, sampleSession())
	require.NoError(t, err)
	require.NoError(t, store.Revoke(ctx, token))

	sess, err := store.Lookup(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestMemoryStore_IssueLookupRevoke(t *testing.T) {
	t.Parallel()
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	token, err := store.Issue(ctx, sampleSession())
	require.NoError(t, err)

	sess, err := store.Lookup(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "ws-1", sess.WorkspaceID)

	require.NoError(t, store.Revoke(ctx, token))
	sess, err = store.Lookup(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestMemoryStore_Expiry(t *testing.T) {
	t.Parallel()
	store := NewMemoryStore(time.Minute)
	base := time.Now()
	store.now = func() time.Time { return base }

	token, err := store.Issue(context.Background(), sampleSession())
	require.NoError(t, err)

	store.now = func() time.Time { return base.Add(2 * time.Minute) }
	sess, err := store.Lookup(context.Background(), token)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestTokensAreUnique(t *testing.T) {
	t.Parallel()
	store := NewMemoryStore(time.Hour)
	seen := make(map[string]bool)
	for range 20 {
		token, err := store.Issue(context.Background(), sampleSession())
		require.NoError(t, err)
		assert.False(t, seen[token])
		seen[token] = true
	}
}
