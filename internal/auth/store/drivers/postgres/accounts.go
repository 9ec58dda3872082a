package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/notesauth/internal/auth/domain"
	"github.com/aussiebroadwan/notesauth/internal/auth/store"
)

type accountsRepo struct{ db DBTX }

func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account) error {
	query :=
		`INSERT INTO accounts (id, email, password_hash, name, created_at, last_login_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.Email, a.PasswordHash, a.Name, a.CreatedAt, nullTime(a.LastLoginAt))
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *accountsRepo) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	query :=
		`SELECT id, email, password_hash, name, created_at, last_login_at
		 FROM accounts WHERE id = $1`

	return scanAccount(r.db.QueryRowContext(ctx, query, id))
}

func (r *accountsRepo) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	query :=
		`SELECT id, email, password_hash, name, created_at, last_login_at
		 FROM accounts WHERE email = $1`

	return scanAccount(r.db.QueryRowContext(ctx, query, email))
}

func (r *accountsRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE accounts SET last_login_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		return err
	}
	return requireRows(res)
}

func (r *accountsRepo) DeleteAccount(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRows(res)
}

func scanAccount(row *sql.Row) (domain.Account, error) {
	var (
		a         domain.Account
		lastLogin sql.NullTime
	)
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Name, &a.CreatedAt, &lastLogin); err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	a.CreatedAt = a.CreatedAt.UTC()
	a.LastLoginAt = timePtr(lastLogin)
	return a, nil
}
