package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mateovilla/clickshop-backend/api/routes"
	"github.com/mateovilla/clickshop-backend/internal/auth"
	"github.com/mateovilla/clickshop-backend/internal/identity"
	"github.com/mateovilla/clickshop-backend/internal/notifications"
	"github.com/mateovilla/clickshop-backend/internal/tokens"
	"github.com/mateovilla/clickshop-backend/internal/users"
	"github.com/mateovilla/clickshop-backend/pkg/config"
	"github.com/mateovilla/clickshop-backend/pkg/db"
	"github.com/mateovilla/clickshop-backend/pkg/logger"
	"github.com/mateovilla/clickshop-backend/pkg/metrics"
	"github.com/mateovilla/clickshop-backend/pkg/migrate"
	"github.com/mateovilla/clickshop-backend/pkg/oauth"
	"github.com/mateovilla/clickshop-backend/pkg/pubsub"
	"github.com/mateovilla/clickshop-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	authMetrics := metrics.NewAuthMetrics(registry)

	notifier, err := notifications.NewNotifier(notifications.NotifierParams{
		Publisher: pubsubClient.EmailPublisher(),
		Frontend:  cfg.Frontend,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notifier", err)
		os.Exit(1)
	}

	resolver, err := identity.NewResolver(identity.ResolverParams{Conn: dbClient.DB()})
	if err != nil {
		logg.Error(context.Background(), "failed to create identity resolver", err)
		os.Exit(1)
	}

	tokenManager, err := tokens.NewManager(tokens.ManagerParams{
		Store:   tokens.NewRepository(dbClient.DB()),
		Config:  cfg.Tokens,
		Metrics: authMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create token manager", err)
		os.Exit(1)
	}

	serviceParams := auth.ServiceParams{
		Conn:           dbClient.DB(),
		Resolver:       resolver,
		TokenManager:   tokenManager,
		Notifier:       notifier,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Metrics:        authMetrics,
		Logger:         logg,
	}
	if cfg.GoogleOAuth.Enabled() {
		googleClient, err := oauth.NewGoogle(cfg.GoogleOAuth)
		if err != nil {
			logg.Error(context.Background(), "failed to create google oauth client", err)
			os.Exit(1)
		}
		serviceParams.Google = googleClient
	} else {
		logg.Warn(context.Background(), "google oauth credentials missing, google sign-in disabled")
	}

	authService, err := auth.NewService(serviceParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:      cfg,
			Logger:      logg,
			DB:          dbClient,
			Redis:       redisClient,
			AuthService: authService,
			UsersRepo:   users.NewRepository(dbClient.DB()),
			Metrics:     authMetrics,
			Registry:    registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
