package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/splinter-be/internal/api"
	"github.com/isdelr/splinter-be/internal/auth"
	"github.com/isdelr/splinter-be/internal/config"
	"github.com/isdelr/splinter-be/internal/database"
	"github.com/isdelr/splinter-be/internal/metrics"
	"github.com/isdelr/splinter-be/internal/monitoring"
	"github.com/isdelr/splinter-be/internal/ratelimit"
	"github.com/isdelr/splinter-be/internal/riot"
	"github.com/isdelr/splinter-be/internal/services"
	"github.com/isdelr/splinter-be/internal/store"
)

// app holds the wired server components and the resources to release.
type app struct {
	handler   http.Handler
	scheduler *monitoring.Scheduler
	closers   []func()
}

// Close releases resources in reverse acquisition order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// openStore connects to the configured database, applies migrations and
// returns the identity store over it.
func openStore(ctx context.Context, cfg *config.Config) (store.IdentityStore, func(), error) {
	if cfg.DatabaseDriver() == "postgres" {
		if err := database.MigratePostgres(cfg.DatabaseURL); err != nil {
			return nil, nil, err
		}
		pool, err := database.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Msg("Using PostgreSQL identity store")
		return store.NewPostgresStore(pool), pool.Close, nil
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}
	log.Info().Str("path", cfg.DatabaseURL).Msg("Using SQLite identity store")
	return store.NewSQLiteStore(db), func() { db.Close() }, nil
}

// newApp wires every component the HTTP server needs.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{scheduler: monitoring.NewScheduler()}
	if err := a.wire(ctx, cfg); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context, cfg *config.Config) error {
	users, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, closeStore)

	var denylist auth.Denylist
	if cfg.RedisAddr != "" {
		client, err := auth.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() { client.Close() })
		denylist = auth.NewRedisDenylist(client)
		log.Info().Str("addr", cfg.RedisAddr).Msg("Using Redis token denylist")
	} else {
		memory := auth.NewMemoryDenylist(nil)
		if err := a.scheduler.AddSweep("token-denylist", monitoring.DefaultSweepSpec, memory); err != nil {
			return err
		}
		denylist = memory
	}

	tokens, err := auth.NewTokenService([]byte(cfg.Auth.JWTSecret), auth.WithDenylist(denylist))
	if err != nil {
		return err
	}

	authService, err := services.NewAuthService(users, auth.NewBcryptDigest(cfg.Auth.BcryptCost), tokens, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	if cfg.Riot.APIKey == "" {
		log.Warn().Msg("RIOT_API_KEY is not set; Riot lookups will be rejected upstream")
	}
	platform := riot.NewClient(cfg.Riot.PlatformURL, cfg.Riot.APIKey, "platform", cfg.Riot.Timeout, riot.WithRecorder(collector))
	continental := riot.NewClient(cfg.Riot.ContinentalURL, cfg.Riot.APIKey, "continental", cfg.Riot.Timeout, riot.WithRecorder(collector))

	limiter := ratelimit.NewIPLimiter(cfg.AuthRateLimit, ratelimit.WithRecorder(collector))
	if err := a.scheduler.AddSweep("auth-rate-limiter", monitoring.DefaultSweepSpec, limiter); err != nil {
		return err
	}

	a.handler = api.NewRouter(api.Dependencies{
		AuthService:   authService,
		Tokens:        tokens,
		Gateway:       riot.NewGateway(platform, continental),
		AuthLimiter:   limiter.Middleware,
		AuthMetrics:   collector,
		Metrics:       metrics.Handler(reg),
		CORSOrigins:   cfg.CORSOrigins,
		TrustProxy:    cfg.TrustProxy,
		SecureCookies: cfg.IsProduction(),
		VerboseErrors: cfg.IsDevelopment(),
	})
	return nil
}

// newAuthService wires an AuthService without the HTTP layer, for commands
// that only touch accounts.
func newAuthService(ctx context.Context, cfg *config.Config) (*services.AuthService, func(), error) {
	users, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	tokens, err := auth.NewTokenService([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	svc, err := services.NewAuthService(users, auth.NewBcryptDigest(cfg.Auth.BcryptCost), tokens, cfg.Auth.TokenTTL)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return svc, closeStore, nil
}
