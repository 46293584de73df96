package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/isdelr/splinter-be/internal/api/handlers"
	"github.com/isdelr/splinter-be/internal/auth"
	"github.com/isdelr/splinter-be/internal/riot"
	"github.com/isdelr/splinter-be/internal/services"
)

// Dependencies are the collaborators the router wires into handlers.
type Dependencies struct {
	AuthService   services.AuthServiceProvider
	Tokens        auth.TokenValidator
	Gateway       riot.GatewayProvider
	AuthLimiter   func(http.Handler) http.Handler // per-client limiter for register and login; nil disables
	AuthMetrics   handlers.AuthMetrics
	Metrics       http.Handler // served at /metrics when set
	CORSOrigins   []string
	TrustProxy    bool // honour X-Forwarded-For/X-Real-IP; only behind a trusted reverse proxy
	SecureCookies bool
	VerboseErrors bool // add error details to 500 bodies
}

// NewRouter creates and configures a new Chi router.
func NewRouter(deps Dependencies) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	// RealIP rewrites RemoteAddr, which the auth rate limiter keys on.
	if deps.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	limit := deps.AuthLimiter
	if limit == nil {
		limit = func(next http.Handler) http.Handler { return next }
	}

	authHandler := handlers.NewAuthHandler(deps.AuthService, deps.AuthMetrics, deps.SecureCookies, deps.VerboseErrors)
	riotHandler := handlers.NewRiotHandler(deps.Gateway, deps.VerboseErrors)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(limit).Post("/register", authHandler.Register)
			r.With(limit).Post("/login", authHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(auth.JWTMiddleware(deps.Tokens))
				r.Get("/me", authHandler.GetMe)
				r.Put("/me/riot-id", authHandler.LinkRiotID)
				r.Post("/logout", authHandler.Logout)
			})
		})

		r.Get("/summoner/{name}", riotHandler.GetSummoner)
		r.Get("/account/{gameName}/{tagLine}", riotHandler.GetAccount)
		r.Get("/matches/ids/{puuid}", riotHandler.GetMatchIDs)
		r.Get("/matches/{matchId}", riotHandler.GetMatch)
		r.Get("/match-history/{gameName}/{tagLine}", riotHandler.GetMatchHistory)
	})

	return r
}
