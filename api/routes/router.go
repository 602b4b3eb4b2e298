package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mateovilla/clickshop-backend/api/controllers"
	"github.com/mateovilla/clickshop-backend/api/middleware"
	"github.com/mateovilla/clickshop-backend/internal/auth"
	"github.com/mateovilla/clickshop-backend/internal/users"
	"github.com/mateovilla/clickshop-backend/pkg/config"
	"github.com/mateovilla/clickshop-backend/pkg/enums"
	"github.com/mateovilla/clickshop-backend/pkg/logger"
	"github.com/mateovilla/clickshop-backend/pkg/metrics"
	"github.com/mateovilla/clickshop-backend/pkg/redis"
)

// RouterParams bundles the dependencies for the HTTP surface.
type RouterParams struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          controllers.Pinger
	Redis       *redis.Client
	AuthService auth.Service
	UsersRepo   *users.Repository
	Metrics     *metrics.AuthMetrics
	Registry    *prometheus.Registry
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.Frontend),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.RateLimit.LoginWindow,
		cfg.RateLimit.LoginIPLimit,
		cfg.RateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.RateLimit.RegisterWindow,
		cfg.RateLimit.RegisterIPLimit,
		cfg.RateLimit.RegisterEmailLimit,
	)
	forgotPolicy := middleware.NewAuthRateLimitPolicy(
		"forgot",
		cfg.RateLimit.ForgotWindow,
		cfg.RateLimit.ForgotIPLimit,
		cfg.RateLimit.ForgotEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, p.DB, p.Redis))
	})

	if p.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, p.Redis, logg)).Post("/register", controllers.AuthRegister(p.AuthService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).Post("/login", controllers.AuthLogin(p.AuthService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).Post("/google", controllers.AuthGoogleLogin(p.AuthService, logg))
		r.With(middleware.AuthRateLimit(forgotPolicy, p.Redis, logg)).Post("/forgot-password", controllers.AuthForgotPassword(p.AuthService, logg))
		r.With(middleware.AuthRateLimit(forgotPolicy, p.Redis, logg)).Post("/reset-password", controllers.AuthResetPassword(p.AuthService, logg))
		r.With(middleware.AuthRateLimit(forgotPolicy, p.Redis, logg)).Post("/verify-email", controllers.AuthVerifyEmail(p.AuthService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Metrics, logg))

		r.Get("/users/me", controllers.UsersMe(p.AuthService, logg))

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, string(enums.RoleAdmin)))
			r.Get("/ping", controllers.AdminPing())
		})

		r.Route("/employee", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, string(enums.RoleAdmin), string(enums.RoleEmployee)))
			if p.UsersRepo != nil {
				r.Use(middleware.RequireEmailVerified(p.UsersRepo, logg))
			}
			r.Get("/ping", controllers.EmployeePing())
		})
	})

	return r
}
