package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/notesauth/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/notesauth/pkg/cryptox"
	"github.com/aussiebroadwan/notesauth/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "alice@example.com"
	testPassword = "verysecurepassword123"
)

var testParams = cryptox.Params{Memory: 1024, Iterations: 1, Parallelism: 1, KeyLength: 32, SaltLength: 16}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations(context.Background()))
	return s
}

func newTestSessionService(t *testing.T) (*SessionService, *fakeClock) {
	t.Helper()

	clock := newFakeClock()
	return &SessionService{
		Store:  newTestStore(t),
		Hasher: cryptox.NewHasher(testParams, ""),
		Codec:  jwtx.NewCodec(clock.Now),
		Tokens: TokenConfig{
			AccessSecret:  []byte("access-secret-for-tests"),
			RefreshSecret: []byte("refresh-secret-for-tests"),
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
		},
	}, clock
}

func TestTokenConfigValidate(t *testing.T) {
	ok := TokenConfig{
		AccessSecret:  []byte("a"),
		RefreshSecret: []byte("b"),
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	}
	require.NoError(t, ok.Validate())

	same := ok
	same.RefreshSecret = []byte("a")
	require.Error(t, same.Validate())

	empty := ok
	empty.AccessSecret = nil
	require.Error(t, empty.Validate())

	noTTL := ok
	noTTL.RefreshTTL = 0
	require.Error(t, noTTL.Validate())
}
