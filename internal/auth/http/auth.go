package http

import (
	"net/http"

	"github.com/aussiebroadwan/notesauth/internal/auth/domain"
	"github.com/aussiebroadwan/notesauth/internal/auth/service"
	"github.com/aussiebroadwan/notesauth/pkg/httpx"
	"github.com/aussiebroadwan/notesauth/pkg/slogx"
)

// AuthHandler serves the cookie session endpoints.
type AuthHandler struct {
	Sessions *service.SessionService
	Cookies  CookieConfig
}

// HandleRegister creates an account.
//
//	@Summary		Register an account
//	@Description	Creates an account. The email is trimmed and lower-cased; passwords must be 12 to 128 characters.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		RegisterRequest		true	"Registration details"
//	@Success		201		{object}	MessageResponse		"registered"
//	@Failure		400		{object}	httpx.APIError		"Invalid email, password or name"
//	@Failure		409		{object}	httpx.APIError		"Email already registered"
//	@Failure		429		{object}	httpx.APIError		"Rate limited"
//	@Router			/auth/register [post].
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.ErrInvalidRequest.WriteError(w)
		return
	}

	if _, err := h.Sessions.Register(r.Context(), req.Email, req.Password, req.Name); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, MessageResponse{Message: "registered"})
}

// HandleLogin verifies credentials and sets the session cookies.
//
//	@Summary		Log in
//	@Description	Verifies credentials and sets the access_token and refresh_token cookies.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		LoginRequest		true	"Credentials"
//	@Success		200		{object}	MessageResponse		"hello <name or email>"
//	@Failure		400		{object}	httpx.APIError		"Malformed request"
//	@Failure		401		{object}	httpx.APIError		"Invalid email or password"
//	@Failure		429		{object}	httpx.APIError		"Too many failed attempts"
//	@Router			/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.ErrInvalidRequest.WriteError(w)
		return
	}
	if req.Email == "" || req.Password == "" {
		httpx.ErrInvalidRequest.WithDescription("email and password are required").WriteError(w)
		return
	}

	pair, account, err := h.Sessions.Login(r.Context(), req.Email, req.Password, clientMeta(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.Cookies.setSessionCookies(w, pair)
	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "hello " + account.DisplayName()})
}

// HandleRefresh rotates the refresh cookie.
//
//	@Summary		Refresh the session
//	@Description	Rotates the refresh_token cookie and issues a new access_token. A refresh token can be used once.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	MessageResponse	"refreshed"
//	@Failure		401	{object}	httpx.APIError	"Missing, invalid, expired or revoked refresh token"
//	@Router			/auth/refresh [post].
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(RefreshCookie)
	if err != nil || c.Value == "" {
		httpx.ErrUnauthenticated.WriteError(w)
		return
	}

	pair, err := h.Sessions.Refresh(r.Context(), c.Value, clientMeta(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.Cookies.setSessionCookies(w, pair)
	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "refreshed"})
}

// HandleLogout revokes the refresh token and clears both cookies.
//
//	@Summary		Log out
//	@Description	Revokes the presented refresh token, if any, and clears both session cookies. Always succeeds.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	MessageResponse	"logged out"
//	@Router			/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(RefreshCookie); err == nil && c.Value != "" {
		if err := h.Sessions.Logout(r.Context(), c.Value); err != nil {
			slogx.FromContext(r.Context()).Error("logout revocation failed", "err", err)
		}
	}

	h.Cookies.clearSessionCookies(w)
	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "logged out"})
}

func clientMeta(r *http.Request) domain.ClientMeta {
	return domain.ClientMeta{
		UserAgent: r.UserAgent(),
		IP:        httpx.ClientIP(r),
	}
}
