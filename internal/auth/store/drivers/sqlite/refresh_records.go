package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/notesauth/internal/auth/domain"
	"github.com/aussiebroadwan/notesauth/internal/auth/store"
)

const refreshRecordColumns = `id, account_id, issued_at, expires_at, revoked_at, rotated_from, user_agent, ip`

type refreshRecordsRepo struct{ db DBTX }

func (r *refreshRecordsRepo) CreateRefreshRecord(ctx context.Context, rec domain.RefreshRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO refresh_records (`+refreshRecordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.AccountID,
		toUnix(rec.IssuedAt),
		toUnix(rec.ExpiresAt),
		toNullUnix(rec.RevokedAt),
		toNullString(rec.RotatedFrom),
		rec.UserAgent,
		rec.IP,
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *refreshRecordsRepo) GetRefreshRecord(ctx context.Context, id string) (domain.RefreshRecord, error) {
	var (
		rec                 domain.RefreshRecord
		issuedAt, expiresAt int64
		revokedAt           sql.NullInt64
		rotatedFrom         sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT `+refreshRecordColumns+` FROM refresh_records WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.AccountID, &issuedAt, &expiresAt, &revokedAt, &rotatedFrom, &rec.UserAgent, &rec.IP)
	if err != nil {
		return domain.RefreshRecord{}, mapNotFound(err)
	}

	rec.IssuedAt = fromUnix(issuedAt)
	rec.ExpiresAt = fromUnix(expiresAt)
	rec.RevokedAt = fromNullUnix(revokedAt)
	rec.RotatedFrom = fromNullString(rotatedFrom)
	return rec, nil
}

func (r *refreshRecordsRepo) RevokeRefreshRecord(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE refresh_records SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL`,
		toUnix(at), id,
	)
	if err != nil {
		return err
	}
	return requireRows(res)
}

func (r *refreshRecordsRepo) RevokeAccountRefreshRecords(ctx context.Context, accountID string, at time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE refresh_records SET revoked_at = ? WHERE account_id = ? AND revoked_at IS NULL`,
		toUnix(at), accountID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *refreshRecordsRepo) HasSuccessor(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM refresh_records WHERE rotated_from = ?)`, id,
	).Scan(&exists)
	return exists, err
}

func (r *refreshRecordsRepo) DeleteRefreshRecordsExpiredBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM refresh_records WHERE expires_at < ?`, toUnix(before))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
