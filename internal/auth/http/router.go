package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/tokengate/internal/auth/service"
	"github.com/aussiebroadwan/tokengate/internal/auth/store"
	"github.com/aussiebroadwan/tokengate/pkg/httpx"
	"github.com/aussiebroadwan/tokengate/pkg/jwtx"
	"github.com/aussiebroadwan/tokengate/pkg/slogx"

	_ "github.com/aussiebroadwan/tokengate/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// RateLimits holds the three rate limit profiles applied to the routes.
type RateLimits struct {
	Strict   httpx.RateLimitConfig
	Moderate httpx.RateLimitConfig
	Public   httpx.RateLimitConfig
}

// DefaultRateLimits returns the built-in profiles.
func DefaultRateLimits() RateLimits {
	return RateLimits{
		Strict:   httpx.StrictLimit,
		Moderate: httpx.ModerateLimit,
		Public:   httpx.PublicLimit,
	}
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeyPair
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	TokenService *service.TokenService
	UserService  *service.UserService
	RolesService *service.RolesService

	Cookies CookieConfig
	Limits  RateLimits

	// Metrics serves /metrics when set.
	Metrics http.Handler

	// Now is the clock handed to every token operation.
	Now func() time.Time
}

func NewRouter(keys *jwtx.KeyPair, buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
		Cookies:      CookieConfig{SameSite: http.SameSiteLaxMode},
		Limits:       DefaultRateLimits(),
		Now:          time.Now,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

// ApplyRoutes registers every endpoint. Services must be set first.
func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerAdmin()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title						tokengate API
//	@version					0.1.0
//	@description				Stateless JWT authentication. Access tokens are returned in response bodies and refresh tokens travel in an HttpOnly cookie.
//	@description
//	@description				All tokens are signed using RS256 (RSA-SHA256) and can be verified using the JWKS endpoint.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/tokengate
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) authn() httpx.Middleware {
	a := httpx.NewAuthenticator(r.TokenService)
	a.Now = r.Now
	return httpx.AuthnMiddleware(a)
}

func (r *Router) registerAuth() {
	// POST /login - strict rate limit by IP + username to slow down guessing
	login := &LoginHandler{
		UserService:  r.UserService,
		TokenService: r.TokenService,
		Cookies:      r.Cookies,
		Now:          r.Now,
	}
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(login,
			httpx.RateLimitByIPAndJSONField(r.Limits.Strict, "username"),
		),
	)

	refresh := &RefreshHandler{TokenService: r.TokenService, Now: r.Now}
	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(refresh,
			httpx.RateLimitByIP(r.Limits.Moderate),
		),
	)

	logout := &LogoutHandler{TokenService: r.TokenService, Cookies: r.Cookies, Now: r.Now}
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(logout,
			httpx.RateLimitByIP(r.Limits.Moderate),
		),
	)

	// Authentication runs before the per-user limiter so it can key on the
	// identity.
	r.Mux.Handle("GET /v1/me",
		httpx.Chain(http.HandlerFunc(MeHandler),
			r.authn(),
			httpx.RateLimitByUser(r.Limits.Public),
		),
	)

	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.keys),
			httpx.RateLimitByIP(r.Limits.Public),
		),
	)
}

func (r *Router) registerAdmin() {
	r.Mux.Handle("GET /v1/admin/revocations",
		httpx.Chain(RevocationsHandler(r.TokenService.Revoked),
			r.authn(),
			httpx.RequireAnyRole("ADMIN"),
			httpx.RateLimitByUser(r.Limits.Moderate),
		),
	)

	r.Mux.Handle("GET /v1/admin/roles",
		httpx.Chain(&RolesHandler{RolesService: r.RolesService},
			r.authn(),
			httpx.RequireAnyRole("ADMIN"),
			httpx.RateLimitByUser(r.Limits.Moderate),
		),
	)

	r.Mux.Handle("DELETE /v1/admin/users/{id}",
		httpx.Chain(&DeleteUserHandler{UserService: r.UserService},
			r.authn(),
			httpx.RequireAnyRole("ADMIN"),
			httpx.RateLimitByUser(r.Limits.Moderate),
		),
	)
}

func (r *Router) registerSystem() {
	// Monitoring systems may poll frequently
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(r.Limits.Public),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys),
			httpx.RateLimitByIP(r.Limits.Public),
		),
	)

	if r.Metrics != nil {
		r.Mux.Handle("GET /metrics", r.Metrics)
	}
}
