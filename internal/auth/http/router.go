package http

import (
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/aussiebroadwan/notesauth/internal/auth/service"
	"github.com/aussiebroadwan/notesauth/internal/auth/store"
	"github.com/aussiebroadwan/notesauth/pkg/httpx"
	"github.com/aussiebroadwan/notesauth/pkg/slogx"

	_ "github.com/aussiebroadwan/notesauth/api/notesauth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// swaggerCSP lets the Swagger UI run its inline bootstrap script.
const swaggerCSP = "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:"

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	SessionService *service.SessionService
	NoteService    *service.NoteService
	Cookies        CookieConfig
}

// NewRouter builds the router. Forwarding headers are honoured only for
// requests arriving from trustedProxies; nil means the socket peer is the
// client.
func NewRouter(buildVersion string, st store.Store, logger *slog.Logger, corsOrigins []string, trustedProxies []netip.Prefix) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Outermost first: request logging sees recovered panics as 500s.
	r.middlewares = []httpx.Middleware{
		httpx.RealIP(trustedProxies),
		slogx.HTTPMiddleware(r.logger),
		httpx.Recovery(),
		httpx.SecurityHeaders(),
		httpx.CORS(corsOrigins),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerAccount()
	r.registerNotes()
	r.registerSystem()

	r.Mux.Handle("GET /swagger/", httpx.Chain(httpSwagger.Handler(),
		relaxCSP,
		httpx.RateLimitByIP(httpx.PublicLimit),
	))
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title						Notes Auth API
//	@version					0.1.0
//	@description				Personal notes API with cookie-based sessions.
//	@description
//	@description				Login sets an HS256 access_token cookie and a rotating refresh_token cookie.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/notesauth
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	CookieAuth
//	@in							cookie
//	@name						access_token
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{Sessions: r.SessionService, Cookies: r.Cookies}

	// Credential submission: strict per-IP limit on top of the account lockout
	r.Mux.Handle("POST /auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.AuthLimit),
		),
	)
	r.Mux.Handle("POST /auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.AuthLimit),
		),
	)

	r.Mux.Handle("POST /auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(httpx.SessionLimit),
		),
	)
	r.Mux.Handle("POST /auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RateLimitByIP(httpx.SessionLimit),
		),
	)
}

func (r *Router) registerAccount() {
	r.Mux.Handle("GET /me", r.secured(http.HandlerFunc(MeHandler)))
}

func (r *Router) registerNotes() {
	h := &NotesHandler{Notes: r.NoteService}

	r.Mux.Handle("GET /notes/me", r.secured(http.HandlerFunc(h.HandleGet)))
	r.Mux.Handle("POST /notes/me", r.secured(http.HandlerFunc(h.HandlePost)))
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}

// secured requires a valid access token and rate limits per account.
func (r *Router) secured(h http.Handler) http.Handler {
	return httpx.Chain(h,
		httpx.AuthnMiddleware(AccessCookie, authenticator(r.SessionService)),
		httpx.RateLimitByAccount(httpx.APILimit),
	)
}

func relaxCSP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", swaggerCSP)
		next.ServeHTTP(w, r)
	})
}
