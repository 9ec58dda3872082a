package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/notesauth/internal/auth/domain"
	"github.com/aussiebroadwan/notesauth/internal/auth/service"
	"github.com/aussiebroadwan/notesauth/pkg/httpx"
)

// NotesHandler serves the caller's single note.
type NotesHandler struct {
	Notes *service.NoteService
}

// HandleGet returns the note.
//
//	@Summary		Get my note
//	@Tags			Notes
//	@Security		CookieAuth
//	@Produce		json
//	@Success		200	{object}	NoteResponse	"content, updated_at"
//	@Failure		401	{object}	httpx.APIError	"Missing or invalid access token"
//	@Failure		404	{object}	httpx.APIError	"No note saved yet"
//	@Router			/notes/me [get].
func (h *NotesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	accountID, ok := httpx.AccountIDFromContext(r.Context())
	if !ok {
		httpx.ErrUnauthenticated.WriteError(w)
		return
	}

	note, err := h.Notes.Get(r.Context(), accountID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, noteResponse(note))
}

// HandlePost creates or replaces the note.
//
//	@Summary		Save my note
//	@Description	Creates the note or replaces its content. Content is limited to 500 characters.
//	@Tags			Notes
//	@Security		CookieAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		NoteRequest		true	"Note content"
//	@Success		200		{object}	NoteResponse	"content, updated_at"
//	@Failure		400		{object}	httpx.APIError	"Content too long"
//	@Failure		401		{object}	httpx.APIError	"Missing or invalid access token"
//	@Router			/notes/me [post].
func (h *NotesHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	accountID, ok := httpx.AccountIDFromContext(r.Context())
	if !ok {
		httpx.ErrUnauthenticated.WriteError(w)
		return
	}

	var req NoteRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.ErrInvalidRequest.WriteError(w)
		return
	}

	note, err := h.Notes.Upsert(r.Context(), accountID, req.Content)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, noteResponse(note))
}

func noteResponse(n domain.Note) NoteResponse {
	return NoteResponse{
		Content:   n.Content,
		UpdatedAt: n.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
