package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/storyreelhq/storyreel-backend/api/controllers"
	"github.com/storyreelhq/storyreel-backend/api/middleware"
	"github.com/storyreelhq/storyreel-backend/internal/auth"
	"github.com/storyreelhq/storyreel-backend/pkg/config"
	"github.com/storyreelhq/storyreel-backend/pkg/db"
	"github.com/storyreelhq/storyreel-backend/pkg/enums"
	"github.com/storyreelhq/storyreel-backend/pkg/logger"
	"github.com/storyreelhq/storyreel-backend/pkg/metrics"
	"github.com/storyreelhq/storyreel-backend/pkg/redis"
)

// RouterParams bundles everything the HTTP tree needs.
type RouterParams struct {
	Config      *config.Config
	Logger      *logger.Logger
	DBPinger    db.Pinger
	Redis       *redis.Client
	AuthService auth.Service
	Users       middleware.UserResolver
	AuthMetrics *metrics.AuthMetrics
	Gatherer    prometheus.Gatherer
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginLimiter := passthrough
	registerLimiter := passthrough
	if p.Redis != nil {
		loginPolicy := middleware.NewAuthRateLimitPolicy(
			"login",
			cfg.AuthRateLimit.LoginWindow,
			cfg.AuthRateLimit.LoginIPLimit,
			cfg.AuthRateLimit.LoginIdentifierLimit,
		)
		registerPolicy := middleware.NewAuthRateLimitPolicy(
			"register",
			cfg.AuthRateLimit.RegisterWindow,
			cfg.AuthRateLimit.RegisterIPLimit,
			cfg.AuthRateLimit.RegisterUsernameLimit,
		)
		loginLimiter = middleware.AuthRateLimit(loginPolicy, p.Redis, logg)
		registerLimiter = middleware.AuthRateLimit(registerPolicy, p.Redis, logg)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DBPinger, redisPinger(p.Redis)))
	})

	if p.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(loginLimiter).Post("/login", controllers.AuthLogin(p.AuthService, p.AuthMetrics, logg))
		r.With(registerLimiter).Post("/register", controllers.AuthRegister(p.AuthService, p.AuthMetrics, logg))
		r.With(middleware.Auth(cfg.JWT, p.Users, logg)).Post("/logout", controllers.AuthLogout(logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Users, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/users", func(r chi.Router) {
			r.Get("/me", controllers.CurrentUser(logg))
			r.Put("/password", controllers.ChangePassword(p.AuthService, logg))
			r.With(middleware.RequireRole(string(enums.UserRoleAdmin), logg)).
				Delete("/account", controllers.CloseAccount(p.AuthService, logg))
		})
	})

	return r
}

func passthrough(next http.Handler) http.Handler {
	return next
}

func redisPinger(c *redis.Client) redis.Pinger {
	if c == nil {
		return nil
	}
	return c
}
