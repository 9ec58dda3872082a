package sqlite

import (
	"context"

	"github.com/aussiebroadwan/notesauth/internal/auth/domain"
)

type notesRepo struct{ db DBTX }

func (r *notesRepo) GetNoteByAccount(ctx context.Context, accountID string) (domain.Note, error) {
	var (
		n                    domain.Note
		createdAt, updatedAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, account_id, content, created_at, updated_at FROM notes WHERE account_id = ?`, accountID,
	).Scan(&n.ID, &n.AccountID, &n.Content, &createdAt, &updatedAt)
	if err != nil {
		return domain.Note{}, mapNotFound(err)
	}

	n.CreatedAt = fromUnix(createdAt)
	n.UpdatedAt = fromUnix(updatedAt)
	return n, nil
}

// UpsertNote keeps the original id and created_at on conflict.
func (r *notesRepo) UpsertNote(ctx context.Context, n domain.Note) (domain.Note, error) {
	var (
		out                  domain.Note
		createdAt, updatedAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO notes (id, account_id, content, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (account_id) DO UPDATE SET
		     content = excluded.content,
		     updated_at = excluded.updated_at
		 RETURNING id, account_id, content, created_at, updated_at`,
		n.ID, n.AccountID, n.Content, toUnix(n.CreatedAt), toUnix(n.UpdatedAt),
	).Scan(&out.ID, &out.AccountID, &out.Content, &createdAt, &updatedAt)
	if err != nil {
		return domain.Note{}, err
	}

	out.CreatedAt = fromUnix(createdAt)
	out.UpdatedAt = fromUnix(updatedAt)
	return out, nil
}
