package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/notesauth/internal/auth/domain"
	"github.com/aussiebroadwan/notesauth/internal/auth/service"
	"github.com/aussiebroadwan/notesauth/pkg/httpx"
)

type accountKey struct{}

func withAccount(ctx context.Context, a domain.Account) context.Context {
	return context.WithValue(ctx, accountKey{}, a)
}

func accountFromContext(ctx context.Context) (domain.Account, bool) {
	a, ok := ctx.Value(accountKey{}).(domain.Account)
	return a, ok
}

// authenticator resolves the access token for httpx.AuthnMiddleware and
// places the account on the context.
func authenticator(sessions *service.SessionService) httpx.AuthnFunc {
	return func(ctx context.Context, token string) (context.Context, error) {
		account, err := sessions.CurrentUser(ctx, token)
		if err != nil {
			if errors.Is(err, service.ErrInternal) {
				return ctx, httpx.ErrServerError
			}
			return ctx, err
		}

		ctx = httpx.WithAccountID(ctx, account.ID)
		return withAccount(ctx, account), nil
	}
}

// MeHandler godoc
//
//	@Summary		Current account
//	@Description	Returns the account behind the access_token cookie (or Bearer header).
//	@Tags			Account
//	@Security		CookieAuth
//	@Produce		json
//	@Success		200	{object}	MeResponse		"id, email, name"
//	@Failure		401	{object}	httpx.APIError	"Missing or invalid access token"
//	@Router			/me [get].
func MeHandler(w http.ResponseWriter, r *http.Request) {
	account, ok := accountFromContext(r.Context())
	if !ok {
		httpx.ErrUnauthenticated.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, MeResponse{
		ID:    account.ID,
		Email: account.Email,
		Name:  account.Name,
	})
}
