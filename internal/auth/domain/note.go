package domain

import "time"

// MaxNoteLength bounds note content in characters.
const MaxNoteLength = 500

// Note is the single free-text note an account may keep.
type Note struct {
	ID        string
	AccountID string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
