package service

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/aussiebroadwan/notesauth/internal/auth/domain"
	"github.com/aussiebroadwan/notesauth/internal/auth/store"
	"github.com/aussiebroadwan/notesauth/pkg/idx"
)

// NoteService manages the single note each account may keep.
type NoteService struct {
	Store        store.Store
	Clock        func() time.Time
	StoreTimeout time.Duration
}

// Get returns the account's note or ErrNoteNotFound.
func (s *NoteService) Get(ctx context.Context, accountID string) (domain.Note, error) {
	sctx, cancel := storeContext(ctx, s.StoreTimeout)
	defer cancel()

	note, err := s.Store.Notes().GetNoteByAccount(sctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Note{}, ErrNoteNotFound
		}
		return domain.Note{}, internalErr("get note", err)
	}
	return note, nil
}

// Upsert creates the note or replaces its content.
func (s *NoteService) Upsert(ctx context.Context, accountID, content string) (domain.Note, error) {
	if utf8.RuneCountInString(content) > domain.MaxNoteLength {
		return domain.Note{}, invalid("content", "must be at most 500 characters")
	}

	now := s.now()
	sctx, cancel := storeContext(ctx, s.StoreTimeout)
	defer cancel()

	note, err := s.Store.Notes().UpsertNote(sctx, domain.Note{
		ID:        idx.NewAt(now).String(),
		AccountID: accountID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return domain.Note{}, internalErr("upsert note", err)
	}
	return note, nil
}

func (s *NoteService) now() time.Time {
	if s.Clock != nil {
		return s.Clock().UTC().Truncate(time.Second)
	}
	return time.Now().UTC().Truncate(time.Second)
}
