package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/netip"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/notesauth/internal/auth/service"
	"github.com/aussiebroadwan/notesauth/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/notesauth/pkg/cryptox"
	"github.com/aussiebroadwan/notesauth/pkg/httpx"
	"github.com/aussiebroadwan/notesauth/pkg/jwtx"
	"github.com/aussiebroadwan/notesauth/pkg/slogx"
	"github.com/stretchr/testify/require"
)

const testEmail = "alice@example.com"

type testServer struct {
	*httptest.Server
	client   *http.Client
	store    *sqlite.Store
	sessions *service.SessionService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerBehind(t, nil)
}

// newTestServerBehind trusts forwarding headers from proxies.
func newTestServerBehind(t *testing.T, proxies []netip.Prefix) *testServer {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations(context.Background()))

	tokens := service.TokenConfig{
		AccessSecret:  []byte("access-secret-for-tests"),
		RefreshSecret: []byte("refresh-secret-for-tests"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	}

	router := NewRouter("test", st, slogx.Discard(), []string{"*"}, proxies)
	router.SessionService = &service.SessionService{
		Store:  st,
		Hasher: cryptox.NewHasher(cryptox.Params{Memory: 1024, Iterations: 1, Parallelism: 1, KeyLength: 32, SaltLength: 16}, ""),
		Codec:  jwtx.NewCodec(time.Now),
		Tokens: tokens,
	}
	router.NoteService = &service.NoteService{Store: st}
	router.Cookies = CookieConfig{
		SameSite:   http.SameSiteLaxMode,
		AccessTTL:  tokens.AccessTTL,
		RefreshTTL: tokens.RefreshTTL,
	}
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testServer{
		Server:   srv,
		client:   &http.Client{Jar: jar},
		store:    st,
		sessions: router.SessionService,
	}
}

func (s *testServer) do(t *testing.T, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	return s.doWithHeaders(t, method, path, body, nil)
}

func (s *testServer) doWithHeaders(t *testing.T, method, path, body string, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, s.URL+path, r)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if raw, _ := io.ReadAll(resp.Body); len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp, out
}

func (s *testServer) cookie(name string) *http.Cookie {
	u, _ := url.Parse(s.URL)
	for _, c := range s.client.Jar.Cookies(u) {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func findSetCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestSessionFlow(t *testing.T) {
	srv := newTestServer(t)

	resp, body := srv.do(t, http.MethodPost, "/auth/register",
		`{"email":"alice@example.com","password":"verysecurepassword123","name":"Alice"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, "registered", body["message"])

	resp, body = srv.do(t, http.MethodPost, "/auth/register",
		`{"email":"ALICE@example.com","password":"verysecurepassword123"}`)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, httpx.ErrorCodeConflict, body["error"])

	resp, body = srv.do(t, http.MethodPost, "/auth/login",
		`{"email":"alice@example.com","password":"verysecurepassword123"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "hello Alice", body["message"])
	require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	access := findSetCookie(resp, AccessCookie)
	require.NotNil(t, access)
	require.True(t, access.HttpOnly)
	require.Equal(t, "/", access.Path)
	require.Equal(t, 15*60, access.MaxAge)
	require.Equal(t, http.SameSiteLaxMode, access.SameSite)

	refresh := findSetCookie(resp, RefreshCookie)
	require.NotNil(t, refresh)
	require.True(t, refresh.HttpOnly)
	require.Equal(t, 7*86400, refresh.MaxAge)

	resp, body = srv.do(t, http.MethodGet, "/me", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, testEmail, body["email"])
	require.Equal(t, "Alice", body["name"])
	require.NotEmpty(t, body["id"])

	resp, body = srv.do(t, http.MethodGet, "/notes/me", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, httpx.ErrorCodeNotFound, body["error"])

	resp, body = srv.do(t, http.MethodPost, "/notes/me", `{"content":"buy milk"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "buy milk", body["content"])
	require.NotEmpty(t, body["updated_at"])

	resp, body = srv.do(t, http.MethodPost, "/notes/me", `{"content":"`+strings.Repeat("x", 501)+`"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, httpx.ErrorCodeInvalidRequest, body["error"])

	resp, body = srv.do(t, http.MethodGet, "/notes/me", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "buy milk", body["content"])

	oldRefresh := srv.cookie(RefreshCookie).Value

	resp, body = srv.do(t, http.MethodPost, "/auth/refresh", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "refreshed", body["message"])
	require.NotEqual(t, oldRefresh, srv.cookie(RefreshCookie).Value)

	resp, _ = srv.do(t, http.MethodGet, "/me", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = srv.do(t, http.MethodPost, "/auth/logout", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "logged out", body["message"])
	cleared := findSetCookie(resp, RefreshCookie)
	require.NotNil(t, cleared)
	require.Negative(t, cleared.MaxAge)
	require.Nil(t, srv.cookie(AccessCookie))
	require.Nil(t, srv.cookie(RefreshCookie))

	resp, body = srv.do(t, http.MethodGet, "/me", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, httpx.ErrorCodeUnauthenticated, body["error"])

	resp, _ = srv.do(t, http.MethodPost, "/auth/refresh", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRefreshAfterLogoutIsRejected(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := srv.do(t, http.MethodPost, "/auth/register", `{"email":"alice@example.com","password":"verysecurepassword123"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, body := srv.do(t, http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"verysecurepassword123"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "hello alice@example.com", body["message"], "greeting falls back to the email")

	token := srv.cookie(RefreshCookie).Value

	resp, _ = srv.do(t, http.MethodPost, "/auth/logout", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// replay the revoked cookie by hand
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/auth/refresh", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: RefreshCookie, Value: token})

	raw, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer raw.Body.Close()
	require.Equal(t, http.StatusUnauthorized, raw.StatusCode)
}

func TestLoginFailures(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := srv.do(t, http.MethodPost, "/auth/register", `{"email":"alice@example.com","password":"verysecurepassword123"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	wrongPassword, wrongBody := srv.do(t, http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"nottherightone"}`)
	unknownEmail, unknownBody := srv.do(t, http.MethodPost, "/auth/login", `{"email":"bob@example.com","password":"verysecurepassword123"}`)

	require.Equal(t, http.StatusUnauthorized, wrongPassword.StatusCode)
	require.Equal(t, http.StatusUnauthorized, unknownEmail.StatusCode)
	require.Equal(t, wrongBody, unknownBody, "responses do not reveal whether the email exists")
	require.Equal(t, httpx.ErrorCodeInvalidCredentials, wrongBody["error"])
	require.Nil(t, findSetCookie(wrongPassword, AccessCookie))

	resp, body := srv.do(t, http.MethodPost, "/auth/login", `{"email":"alice@example.com"`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, httpx.ErrorCodeInvalidRequest, body["error"])
}

const badLogin = `{"email":"alice@example.com","password":"nottherightone"}`

func TestLoginRateLimitIgnoresForwardedFor(t *testing.T) {
	srv := newTestServer(t)

	var limited bool
	for i := range 10 {
		resp, body := srv.doWithHeaders(t, http.MethodPost, "/auth/login", badLogin,
			map[string]string{"X-Forwarded-For": netip.AddrFrom4([4]byte{10, 0, 0, byte(i + 1)}).String()})
		if resp.StatusCode == http.StatusTooManyRequests {
			require.Equal(t, httpx.ErrorCodeRateLimited, body["error"])
			limited = true
			break
		}
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
	require.True(t, limited, "one socket shares one bucket whatever X-Forwarded-For says")
}

func TestLoginRateLimitBehindTrustedProxy(t *testing.T) {
	srv := newTestServerBehind(t, []netip.Prefix{netip.MustParsePrefix("127.0.0.1/32")})

	// distinct clients behind the proxy each get their own bucket
	for i := range 10 {
		resp, _ := srv.doWithHeaders(t, http.MethodPost, "/auth/login", badLogin,
			map[string]string{"X-Forwarded-For": netip.AddrFrom4([4]byte{203, 0, 113, byte(i + 1)}).String()})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, "client %d", i+1)
	}

	// one client behind the proxy is still limited
	var limited bool
	for range 10 {
		resp, _ := srv.doWithHeaders(t, http.MethodPost, "/auth/login", badLogin,
			map[string]string{"X-Forwarded-For": "198.51.100.7"})
		if resp.StatusCode == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	require.True(t, limited)
}

func TestSessionRecordsSocketAddress(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := srv.do(t, http.MethodPost, "/auth/register", `{"email":"alice@example.com","password":"verysecurepassword123"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = srv.doWithHeaders(t, http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"verysecurepassword123"}`,
		map[string]string{"X-Forwarded-For": "6.6.6.6", "X-Real-IP": "6.6.6.6"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	refresh := findSetCookie(resp, RefreshCookie)
	require.NotNil(t, refresh)
	claims, err := srv.sessions.Codec.Decode(refresh.Value, srv.sessions.Tokens.RefreshSecret)
	require.NoError(t, err)

	rec, err := srv.store.RefreshRecords().GetRefreshRecord(context.Background(), claims.ID)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1", rec.IP)
}

func TestRegisterValidation(t *testing.T) {
	srv := newTestServer(t)

	resp, body := srv.do(t, http.MethodPost, "/auth/register", `{"email":"alice@example.com","password":"short"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, httpx.ErrorCodeInvalidRequest, body["error"])
	require.Contains(t, body["error_description"], "password")
}

func TestBearerAccessToken(t *testing.T) {
	srv := newTestServer(t)

	srv.do(t, http.MethodPost, "/auth/register", `{"email":"alice@example.com","password":"verysecurepassword123"}`)
	resp, _ := srv.do(t, http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"verysecurepassword123"}`)
	access := findSetCookie(resp, AccessCookie)
	require.NotNil(t, access)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+access.Value)

	raw, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer raw.Body.Close()
	require.Equal(t, http.StatusOK, raw.StatusCode)
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	srv := newTestServer(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/me"},
		{http.MethodGet, "/notes/me"},
		{http.MethodPost, "/notes/me"},
	} {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			resp, body := srv.do(t, tc.method, tc.path, "")
			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			require.NotEmpty(t, resp.Header.Get("WWW-Authenticate"))
			require.Equal(t, httpx.ErrorCodeUnauthenticated, body["error"])
		})
	}
}

func TestHealthAndHeaders(t *testing.T) {
	srv := newTestServer(t)

	resp, body := srv.do(t, http.MethodGet, "/livez", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", body["status"])
	require.Equal(t, "test", body["version"])
	require.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	require.NotEmpty(t, resp.Header.Get(slogx.RequestIDHeader))

	resp, body = srv.do(t, http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", body["status"])

	require.NoError(t, srv.store.Close())

	resp, body = srv.do(t, http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	require.Equal(t, "degraded", body["status"])
}

func TestParseSameSite(t *testing.T) {
	tests := map[string]http.SameSite{
		"lax":    http.SameSiteLaxMode,
		"Strict": http.SameSiteStrictMode,
		"none":   http.SameSiteNoneMode,
		"":       http.SameSiteLaxMode,
	}
	for in, want := range tests {
		got, err := ParseSameSite(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := ParseSameSite("sometimes")
	require.Error(t, err)
}
