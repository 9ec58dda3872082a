package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/notesauth/internal/auth/domain"
	"github.com/aussiebroadwan/notesauth/internal/auth/store"
)

type refreshRecordsRepo struct{ db DBTX }

func (r *refreshRecordsRepo) CreateRefreshRecord(ctx context.Context, rec domain.RefreshRecord) error {
	query :=
		`INSERT INTO refresh_records (id, account_id, issued_at, expires_at, revoked_at, rotated_from, user_agent, ip)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.AccountID, rec.IssuedAt, rec.ExpiresAt,
		nullTime(rec.RevokedAt), nullString(rec.RotatedFrom), rec.UserAgent, rec.IP)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *refreshRecordsRepo) GetRefreshRecord(ctx context.Context, id string) (domain.RefreshRecord, error) {
	query :=
		`SELECT id, account_id, issued_at, expires_at, revoked_at, rotated_from, user_agent, ip
		 FROM refresh_records WHERE id = $1`

	var (
		rec         domain.RefreshRecord
		revokedAt   sql.NullTime
		rotatedFrom sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID, &rec.AccountID, &rec.IssuedAt, &rec.ExpiresAt,
		&revokedAt, &rotatedFrom, &rec.UserAgent, &rec.IP)
	if err != nil {
		return domain.RefreshRecord{}, mapNotFound(err)
	}

	rec.IssuedAt = rec.IssuedAt.UTC()
	rec.ExpiresAt = rec.ExpiresAt.UTC()
	rec.RevokedAt = timePtr(revokedAt)
	rec.RotatedFrom = rotatedFrom.String
	return rec, nil
}

func (r *refreshRecordsRepo) RevokeRefreshRecord(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE refresh_records SET revoked_at = $1 WHERE id = $2 AND revoked_at IS NULL`, at, id)
	if err != nil {
		return err
	}
	return requireRows(res)
}

func (r *refreshRecordsRepo) RevokeAccountRefreshRecords(ctx context.Context, accountID string, at time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE refresh_records SET revoked_at = $1 WHERE account_id = $2 AND revoked_at IS NULL`, at, accountID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *refreshRecordsRepo) HasSuccessor(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM refresh_records WHERE rotated_from = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *refreshRecordsRepo) DeleteRefreshRecordsExpiredBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM refresh_records WHERE expires_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
