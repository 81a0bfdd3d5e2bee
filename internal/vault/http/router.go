package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/credvault/internal/vault/service"
	"github.com/aussiebroadwan/credvault/internal/vault/store"
	"github.com/aussiebroadwan/credvault/pkg/cryptox"
	"github.com/aussiebroadwan/credvault/pkg/httpx"
	"github.com/aussiebroadwan/credvault/pkg/slogx"

	_ "github.com/aussiebroadwan/credvault/api/vault" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store  store.Store
	cipher *cryptox.Cipher

	AccountService   *service.AccountService
	StatusBridge     *service.StatusBridge
	HandshakeService *service.HandshakeService
}

func NewRouter(
	buildVersion string,
	st store.Store,
	cipher *cryptox.Cipher,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		cipher:       cipher,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAccounts()
	r.registerHandshake()
	r.registerSystem()

	r.Mux.Handle("/swagger/",
		httpx.Chain(httpSwagger.Handler(),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Credential Vault API
//	@version		0.1.0
//	@description	Stores encrypted per-user credentials and brokers the external authorization handshake that produces them.
//	@description
//	@description	Handshakes are asynchronous: initiation returns an authorization URL and the token is captured in the background. Poll the status endpoint.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/credvault
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

func (r *Router) registerAccounts() {
	h := &AccountHandler{Accounts: r.AccountService}

	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// Password guessing is limited per IP + email
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIPAndField(httpx.StrictLimit, "email"),
		),
	)

	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("POST /v1/auth/password/forgot",
		httpx.Chain(http.HandlerFunc(h.HandleForgotPassword),
			httpx.RateLimitByIPAndField(httpx.StrictLimit, "email"),
		),
	)

	// Reset tokens are 256-bit, but there is no reason to allow guessing them fast
	r.Mux.Handle("POST /v1/auth/password/reset",
		httpx.Chain(http.HandlerFunc(h.HandleResetPassword),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("GET /v1/auth/debug_status",
		httpx.Chain(&DebugHandler{Bridge: r.StatusBridge},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerHandshake() {
	h := &HandshakeHandler{Handshakes: r.HandshakeService}

	// Each initiation may spawn a process
	r.Mux.Handle("POST /v1/handshake",
		httpx.Chain(http.HandlerFunc(h.HandleInitiate),
			httpx.RateLimitByIPAndField(httpx.StrictLimit, "user_id"),
		),
	)

	// Polled by the front end
	r.Mux.Handle("GET /v1/handshake/status",
		httpx.Chain(http.HandlerFunc(h.HandleStatus),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	r.Mux.Handle("DELETE /v1/handshake",
		httpx.Chain(http.HandlerFunc(h.HandleCancel),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.cipher),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
