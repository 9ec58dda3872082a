package app

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aussiebroadwan/notesauth/internal/auth/lockout"
	"github.com/stretchr/testify/require"
)

func testAppConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.DatabaseURL = "sqlite:///" + filepath.Join(dir, "notes.db")
	cfg.PepperFile = filepath.Join(dir, "pepper")
	cfg.LogLevel = "error"
	return cfg
}

func TestNewServesRoutes(t *testing.T) {
	application, err := New(testAppConfig(t))
	require.NoError(t, err)
	application.housekeepingService.Start()
	t.Cleanup(func() { require.NoError(t, application.Shutdown()) })

	require.IsType(t, lockout.NopGuard{}, application.sessionService.Guard)

	srv := httptest.NewServer(application.router)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/auth/register", "application/json",
		strings.NewReader(`{"email":"alice@example.com","password":"verysecurepassword123"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestNewWithRedisLockout(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testAppConfig(t)
	cfg.RedisAddr = mr.Addr()
	cfg.LoginMaxAttempts = 3

	application, err := New(cfg)
	require.NoError(t, err)
	application.housekeepingService.Start()
	t.Cleanup(func() { require.NoError(t, application.Shutdown()) })

	require.IsType(t, &lockout.RedisGuard{}, application.sessionService.Guard)
	require.NotNil(t, application.redis)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testAppConfig(t)
	cfg.Env = "prod"

	_, err := New(cfg)
	require.ErrorContains(t, err, "SECRET_KEY")
}
