package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/notesauth/internal/auth/domain"
	"github.com/aussiebroadwan/notesauth/internal/auth/store"
)

const accountColumns = `id, email, password_hash, name, created_at, last_login_at`

type accountsRepo struct{ db DBTX }

func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.Email, a.PasswordHash, a.Name, toUnix(a.CreatedAt), toNullUnix(a.LastLoginAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *accountsRepo) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

func (r *accountsRepo) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email)
	return scanAccount(row)
}

func (r *accountsRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE accounts SET last_login_at = ? WHERE id = ?`, toUnix(at), id)
	if err != nil {
		return err
	}
	return requireRows(res)
}

func (r *accountsRepo) DeleteAccount(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRows(res)
}

func scanAccount(row *sql.Row) (domain.Account, error) {
	var (
		a         domain.Account
		createdAt int64
		lastLogin sql.NullInt64
	)
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Name, &createdAt, &lastLogin); err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	a.CreatedAt = fromUnix(createdAt)
	a.LastLoginAt = fromNullUnix(lastLogin)
	return a, nil
}

// requireRows maps an UPDATE/DELETE that touched nothing to ErrNotFound.
func requireRows(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
