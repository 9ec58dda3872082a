package postgres

import (
	"context"

	"github.com/aussiebroadwan/notesauth/internal/auth/domain"
)

type notesRepo struct{ db DBTX }

func (r *notesRepo) GetNoteByAccount(ctx context.Context, accountID string) (domain.Note, error) {
	query :=
		`SELECT id, account_id, content, created_at, updated_at
		 FROM notes WHERE account_id = $1`

	var n domain.Note
	err := r.db.QueryRowContext(ctx, query, accountID).
		Scan(&n.ID, &n.AccountID, &n.Content, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return domain.Note{}, mapNotFound(err)
	}
	return utcNote(n), nil
}

func (r *notesRepo) UpsertNote(ctx context.Context, n domain.Note) (domain.Note, error) {
	query :=
		`INSERT INTO notes (id, account_id, content, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (account_id) DO UPDATE SET content = EXCLUDED.content, updated_at = EXCLUDED.updated_at
		 RETURNING id, account_id, content, created_at, updated_at`

	var out domain.Note
	err := r.db.QueryRowContext(ctx, query, n.ID, n.AccountID, n.Content, n.CreatedAt, n.UpdatedAt).
		Scan(&out.ID, &out.AccountID, &out.Content, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return domain.Note{}, err
	}
	return utcNote(out), nil
}

func utcNote(n domain.Note) domain.Note {
	n.CreatedAt = n.CreatedAt.UTC()
	n.UpdatedAt = n.UpdatedAt.UTC()
	return n
}
