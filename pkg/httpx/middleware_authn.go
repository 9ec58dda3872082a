package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/notesauth/pkg/slogx"
)

// AuthnFunc resolves a presented access token and returns a context carrying
// the caller's identity. Returning an *APIError selects the response;
// any other error is answered with ErrUnauthenticated.
type AuthnFunc func(ctx context.Context, token string) (context.Context, error)

// TokenFromRequest returns the token in the named cookie, falling back to an
// "Authorization: Bearer" header for non-browser clients.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}

	authz := r.Header.Get("Authorization")
	if rest, ok := strings.CutPrefix(authz, "Bearer "); ok {
		return strings.TrimSpace(rest)
	}
	return ""
}

// AuthnMiddleware rejects requests without a valid access token and hands the
// enriched context to next.
func AuthnMiddleware(cookieName string, authn AuthnFunc) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token := TokenFromRequest(r, cookieName)
			if token == "" {
				writeBearerError(w, ErrUnauthenticated)
				return
			}

			ctx, err := authn(ctx, token)
			if err != nil {
				var apiErr *APIError
				if errors.As(err, &apiErr) && apiErr.StatusCode != http.StatusUnauthorized {
					apiErr.WriteError(w)
					return
				}
				slogx.FromContext(r.Context()).Debug("access token rejected", "err", err)
				writeBearerError(w, ErrUnauthenticated)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeBearerError(w http.ResponseWriter, e *APIError) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	e.WriteError(w)
}
