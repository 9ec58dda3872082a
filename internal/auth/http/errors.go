package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/notesauth/internal/auth/service"
	"github.com/aussiebroadwan/notesauth/pkg/httpx"
	"github.com/aussiebroadwan/notesauth/pkg/slogx"
)

// writeServiceError maps service sentinels onto API errors. Anything
// unrecognised is logged and answered with a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *service.ValidationError

	switch {
	case errors.As(err, &ve):
		httpx.ErrInvalidRequest.WithDescription(ve.Error()).WriteError(w)
	case errors.Is(err, service.ErrInvalidInput):
		httpx.ErrInvalidRequest.WriteError(w)
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.ErrInvalidCredentials.WriteError(w)
	case errors.Is(err, service.ErrUnauthenticated):
		httpx.ErrUnauthenticated.WriteError(w)
	case errors.Is(err, service.ErrAccountExists):
		httpx.ErrConflict.WriteError(w)
	case errors.Is(err, service.ErrNoteNotFound):
		httpx.ErrNotFound.WithDescription("no note saved yet").WriteError(w)
	case errors.Is(err, service.ErrTooManyAttempts):
		httpx.ErrTooManyAttempts.WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		httpx.ErrServerError.WriteError(w)
	}
}
