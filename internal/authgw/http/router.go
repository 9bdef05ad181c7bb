package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/invoicely/internal/authgw/store"
	"github.com/aussiebroadwan/invoicely/pkg/httpx"
	"github.com/aussiebroadwan/invoicely/pkg/slogx"

	_ "github.com/aussiebroadwan/invoicely/api/authgw" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// DefaultSettleTimeout bounds how long an action waits for the auth state
// it caused before responding with whatever state is current.
const DefaultSettleTimeout = 3 * time.Second

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	Sessions *Registry
	Cookies  *DeviceCookies
	// SecureCookies marks the sid cookie Secure.
	SecureCookies bool
	SettleTimeout time.Duration

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	// store is nil when device trust is kept in cookies only.
	store store.Store
}

func NewRouter(
	sessions *Registry,
	cookies *DeviceCookies,
	st store.Store,
	corsOrigins []string,
	buildVersion string,
	logger *slog.Logger,
) *Router {
	logger = slogx.OrDiscard(logger)
	r := &Router{
		Mux:           http.NewServeMux(),
		Sessions:      sessions,
		Cookies:       cookies,
		SettleTimeout: DefaultSettleTimeout,
		buildVersion:  buildVersion,
		startTime:     time.Now(),
		logger:        logger,
		store:         st,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.CORS(corsOrigins, HeaderTimezone, HeaderCanvas),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerFlow()
	r.registerMFA()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Invoicely Auth Gateway API
//	@version		0.1.0
//	@description	Backend-for-frontend driving the invoicely sign-in flow: password sign-in, sign-up,
//	@description	password reset and TOTP multi-factor authentication with remembered devices.
//	@description
//	@description	Each browser is identified by the sid cookie; the device_trust cookie remembers
//	@description	browsers that completed MFA.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/invoicely
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// bySession charges a request to its browser session, or to the client IP
// before the browser has one.
var bySession = httpx.CookieKey(SessionCookie)

func (r *Router) registerAuth() {
	h := &AuthHandler{Router: r}

	// GET /state - lenient rate limit (polled by the UI)
	r.Mux.Handle("GET /v1/auth/state",
		httpx.Chain(http.HandlerFunc(h.HandleState),
			httpx.RateLimit(httpx.LenientLimit, bySession),
		),
	)

	// Credential submission - strict rate limit by IP
	r.Mux.Handle("POST /v1/auth/signin",
		httpx.Chain(http.HandlerFunc(h.HandleSignIn),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/signup",
		httpx.Chain(http.HandlerFunc(h.HandleSignUp),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/password/reset",
		httpx.Chain(http.HandlerFunc(h.HandleResetPassword),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /v1/auth/signout",
		httpx.Chain(http.HandlerFunc(h.HandleSignOut),
			httpx.RateLimit(httpx.ModerateLimit, bySession),
		),
	)
}

func (r *Router) registerFlow() {
	h := &FlowHandler{Router: r}

	r.Mux.Handle("POST /v1/auth/mode",
		httpx.Chain(http.HandlerFunc(h.HandleMode),
			httpx.RateLimit(httpx.LenientLimit, bySession),
		),
	)
	r.Mux.Handle("POST /v1/auth/back",
		httpx.Chain(http.HandlerFunc(h.HandleBack),
			httpx.RateLimit(httpx.ModerateLimit, bySession),
		),
	)
}

func (r *Router) registerMFA() {
	h := &MFAHandler{Router: r}

	r.Mux.Handle("POST /v1/auth/mfa/totp/enroll",
		httpx.Chain(http.HandlerFunc(h.HandleEnroll),
			httpx.RateLimit(httpx.ModerateLimit, bySession),
		),
	)

	// POST /verify - strict rate limit (prevent brute force of TOTP codes)
	r.Mux.Handle("POST /v1/auth/mfa/totp/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerify),
			httpx.RateLimit(httpx.StrictLimit, bySession),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.Sessions))
}
