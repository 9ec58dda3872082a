package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/notesauth/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. Repositories are reached through it so that everything
// done inside WithTx goes through the transaction's own repositories.
type Store interface {
	Accounts() Accounts
	RefreshRecords() RefreshRecords
	Notes() Notes

	ApplyMigrations(ctx context.Context) error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. It commits when fn returns
	// nil and rolls back otherwise. Inside fn only tx may be used; the
	// sqlite driver runs on a single connection and touching the outer
	// Store there deadlocks.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Accounts interface {
	// CreateAccount inserts a new account (id is provided by the caller via
	// ULID). A duplicate email yields ErrAlreadyExists.
	CreateAccount(ctx context.Context, a domain.Account) error

	GetAccountByID(ctx context.Context, id string) (domain.Account, error)

	// GetAccountByEmail expects an already normalized email.
	GetAccountByEmail(ctx context.Context, email string) (domain.Account, error)

	UpdateLastLogin(ctx context.Context, id string, at time.Time) error

	// DeleteAccount cascades to refresh records and the note.
	DeleteAccount(ctx context.Context, id string) error
}

type RefreshRecords interface {
	CreateRefreshRecord(ctx context.Context, r domain.RefreshRecord) error

	GetRefreshRecord(ctx context.Context, id string) (domain.RefreshRecord, error)

	// RevokeRefreshRecord sets revoked_at only if it is still unset. It
	// returns ErrNotFound when no unrevoked record matched, which is how
	// concurrent rotations of the same token lose the race.
	RevokeRefreshRecord(ctx context.Context, id string, at time.Time) error

	// RevokeAccountRefreshRecords revokes every unrevoked record of the
	// account and returns how many were touched.
	RevokeAccountRefreshRecords(ctx context.Context, accountID string, at time.Time) (int64, error)

	// HasSuccessor reports whether some record was rotated from id.
	HasSuccessor(ctx context.Context, id string) (bool, error)

	// DeleteRefreshRecordsExpiredBefore is housekeeping.
	DeleteRefreshRecordsExpiredBefore(ctx context.Context, before time.Time) (int64, error)
}

type Notes interface {
	GetNoteByAccount(ctx context.Context, accountID string) (domain.Note, error)

	// UpsertNote creates the account's note or replaces its content,
	// returning the stored row.
	UpsertNote(ctx context.Context, n domain.Note) (domain.Note, error)
}
