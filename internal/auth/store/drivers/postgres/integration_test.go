package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aussiebroadwan/notesauth/internal/auth/domain"
	"github.com/aussiebroadwan/notesauth/internal/auth/store"
	"github.com/aussiebroadwan/notesauth/internal/auth/store/drivers/postgres"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupPostgres starts a throwaway postgres and returns its DSN.
func setupPostgres(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "notesauth",
			"POSTGRES_PASSWORD": "notesauth",
			"POSTGRES_DB":       "notesauth",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://notesauth:notesauth@%s:%s/notesauth?sslmode=disable", host, port.Port())
}

func TestPostgresStore(t *testing.T) {
	dsn := setupPostgres(t)
	ctx := context.Background()

	s, err := postgres.NewStore(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations(ctx))
	require.NoError(t, s.ApplyMigrations(ctx), "migrations are idempotent")

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.Accounts().CreateAccount(ctx, domain.Account{
		ID: "acct1", Email: "alice@example.com", PasswordHash: "h", CreatedAt: now,
	}))
	err = s.Accounts().CreateAccount(ctx, domain.Account{ID: "acct2", Email: "alice@example.com", CreatedAt: now})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	err = s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Accounts().UpdateLastLogin(ctx, "acct1", now); err != nil {
			return err
		}
		return tx.RefreshRecords().CreateRefreshRecord(ctx, domain.RefreshRecord{
			ID: "jti1", AccountID: "acct1", IssuedAt: now, ExpiresAt: now.Add(time.Hour),
		})
	})
	require.NoError(t, err)

	require.NoError(t, s.RefreshRecords().RevokeRefreshRecord(ctx, "jti1", now))
	require.ErrorIs(t, s.RefreshRecords().RevokeRefreshRecord(ctx, "jti1", now), store.ErrNotFound)

	rec, err := s.RefreshRecords().GetRefreshRecord(ctx, "jti1")
	require.NoError(t, err)
	require.Equal(t, now, *rec.RevokedAt)

	note, err := s.Notes().UpsertNote(ctx, domain.Note{ID: "n1", AccountID: "acct1", Content: "hi", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	require.Equal(t, "hi", note.Content)

	require.NoError(t, s.Accounts().DeleteAccount(ctx, "acct1"))
	_, err = s.Notes().GetNoteByAccount(ctx, "acct1")
	require.ErrorIs(t, err, store.ErrNotFound)
}
