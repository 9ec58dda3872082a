package lockout

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

func TestRedisGuardLocksAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)
	g := NewRedisGuard(client, Config{MaxAttempts: 3, Cooldown: time.Minute})

	for i := range 3 {
		require.NoError(t, g.Check(ctx, "alice@example.com", "10.0.0.1"), "attempt %d", i+1)
		require.NoError(t, g.Fail(ctx, "alice@example.com", "10.0.0.1"))
	}

	require.ErrorIs(t, g.Check(ctx, "alice@example.com", "10.0.0.1"), ErrLocked)
	require.ErrorIs(t, g.Check(ctx, " Alice@Example.com ", "10.0.0.2"), ErrLocked, "email counter is normalized")
	require.ErrorIs(t, g.Check(ctx, "bob@example.com", "10.0.0.1"), ErrLocked, "ip counter applies to other emails")
	require.NoError(t, g.Check(ctx, "bob@example.com", "10.0.0.2"))
}

func TestRedisGuardCooldownExpires(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	g := NewRedisGuard(client, Config{MaxAttempts: 1, Cooldown: time.Minute})

	require.NoError(t, g.Fail(ctx, "alice@example.com", "10.0.0.1"))
	require.ErrorIs(t, g.Check(ctx, "alice@example.com", "10.0.0.1"), ErrLocked)

	require.Equal(t, time.Minute, mr.TTL(emailKey("alice@example.com")))
	mr.FastForward(time.Minute + time.Second)

	require.NoError(t, g.Check(ctx, "alice@example.com", "10.0.0.1"))
}

func TestRedisGuardReset(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	g := NewRedisGuard(client, Config{MaxAttempts: 2, Cooldown: time.Minute})

	require.NoError(t, g.Fail(ctx, "alice@example.com", "10.0.0.1"))
	require.NoError(t, g.Reset(ctx, "alice@example.com", "10.0.0.1"))

	require.False(t, mr.Exists(emailKey("alice@example.com")))
	require.True(t, mr.Exists(ipKey("10.0.0.1")), "ip counter survives a successful login")
}

func TestRedisGuardKeysDoNotLeakEmail(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	g := NewRedisGuard(client, DefaultConfig)

	require.NoError(t, g.Fail(ctx, "alice@example.com", ""))
	for _, k := range mr.Keys() {
		require.NotContains(t, k, "alice")
	}
	require.Len(t, mr.Keys(), 1, "no ip key without an address")
}

func TestRedisGuardFailRestoresMissingTTL(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	g := NewRedisGuard(client, Config{MaxAttempts: 5, Cooldown: 15 * time.Minute})

	// a counter left behind without an expiry
	require.NoError(t, mr.Set(emailKey("alice@example.com"), "2"))
	require.Zero(t, mr.TTL(emailKey("alice@example.com")))

	require.NoError(t, g.Fail(ctx, "alice@example.com", "10.0.0.1"))

	got, err := mr.Get(emailKey("alice@example.com"))
	require.NoError(t, err)
	require.Equal(t, "3", got)
	require.Equal(t, 15*time.Minute, mr.TTL(emailKey("alice@example.com")))
	require.Equal(t, 15*time.Minute, mr.TTL(ipKey("10.0.0.1")))
}

func TestRedisGuardFailKeepsWindowFixed(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	g := NewRedisGuard(client, Config{MaxAttempts: 5, Cooldown: time.Minute})

	require.NoError(t, g.Fail(ctx, "alice@example.com", ""))
	mr.FastForward(40 * time.Second)
	require.NoError(t, g.Fail(ctx, "alice@example.com", ""))

	require.Equal(t, 20*time.Second, mr.TTL(emailKey("alice@example.com")), "later failures do not extend the window")
}

func TestRedisGuardFailCountsIPWhenEmailKeyBroken(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	g := NewRedisGuard(client, Config{MaxAttempts: 5, Cooldown: time.Minute})

	// INCR on a non-integer value errors
	require.NoError(t, mr.Set(emailKey("alice@example.com"), "not-a-number"))

	require.NoError(t, g.Fail(ctx, "alice@example.com", "10.0.0.1"))

	got, err := mr.Get(ipKey("10.0.0.1"))
	require.NoError(t, err)
	require.Equal(t, "1", got)
}

func TestRedisGuardFailsOpen(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	g := NewRedisGuard(client, Config{MaxAttempts: 1, Cooldown: time.Minute})

	mr.Close()

	require.NoError(t, g.Fail(ctx, "alice@example.com", "10.0.0.1"))
	require.NoError(t, g.Check(ctx, "alice@example.com", "10.0.0.1"))
	require.NoError(t, g.Reset(ctx, "alice@example.com", "10.0.0.1"))
}

func TestNopGuard(t *testing.T) {
	var g Guard = NopGuard{}
	for range 10 {
		require.NoError(t, g.Fail(context.Background(), "a@b.c", "1.1.1.1"))
	}
	require.NoError(t, g.Check(context.Background(), "a@b.c", "1.1.1.1"))
}
