package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/notesauth/internal/auth/domain"
)

const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
)

// CookieConfig controls the attributes of both session cookies.
type CookieConfig struct {
	Domain     string
	Secure     bool
	SameSite   http.SameSite
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// ParseSameSite maps lax, strict and none to http.SameSite.
func ParseSameSite(s string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lax", "":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("invalid SameSite value %q (want lax, strict or none)", s)
	}
}

func (c CookieConfig) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   maxAge,
		Secure:   c.Secure,
		HttpOnly: true,
		SameSite: c.SameSite,
	}
}

// setSessionCookies writes both tokens. Max-Age is the token lifetime in
// whole seconds.
func (c CookieConfig) setSessionCookies(w http.ResponseWriter, pair domain.TokenPair) {
	http.SetCookie(w, c.cookie(AccessCookie, pair.AccessToken, int(c.AccessTTL/time.Second)))
	http.SetCookie(w, c.cookie(RefreshCookie, pair.RefreshToken, int(c.RefreshTTL/time.Second)))
}

// clearSessionCookies expires both cookies on the same domain and path.
func (c CookieConfig) clearSessionCookies(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie(AccessCookie, "", -1))
	http.SetCookie(w, c.cookie(RefreshCookie, "", -1))
}
