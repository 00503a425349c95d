package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/classpilot/classpilot-backend/api/routes"
	"github.com/classpilot/classpilot-backend/internal/registrations"
	"github.com/classpilot/classpilot-backend/internal/tiers"
	"github.com/classpilot/classpilot-backend/pkg/config"
	"github.com/classpilot/classpilot-backend/pkg/db"
	"github.com/classpilot/classpilot-backend/pkg/logger"
	"github.com/classpilot/classpilot-backend/pkg/metrics"
	"github.com/classpilot/classpilot-backend/pkg/migrate"
	"github.com/classpilot/classpilot-backend/pkg/redis"
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

	tierService, err := tiers.NewService(tiers.ServiceParams{
		Repo:            tiers.NewRepository(dbClient.DB()),
		TrialFlags:      redisClient,
		Logger:          logg,
		AuditLogEnabled: cfg.PayFast.AuditLogEnabled,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create tier service", err)
		os.Exit(1)
	}

	regClient, err := registrations.NewClient(cfg.Sync)
	if err != nil {
		logg.Error(context.Background(), "failed to create registrations client", err)
		os.Exit(1)
	}
	regService, err := registrations.NewService(registrations.ServiceParams{
		Repo:    registrations.NewRepository(dbClient.DB()),
		Fetcher: regClient,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create registrations service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	proxyTarget := cfg.PayFast.ITNTargetURL
	if proxyTarget == "" {
		proxyTarget = fmt.Sprintf("http://127.0.0.1:%s/api/v1/webhooks/payfast", port)
	}

	router := routes.NewRouter(routes.Dependencies{
		Config:         cfg,
		Logger:         logg,
		DB:             dbClient,
		Redis:          redisClient,
		Reconciler:     tierService,
		TierReader:     tierService,
		Registrations:  regService,
		Syncer:         regService,
		WebhookMetrics: metrics.NewWebhookMetrics(prometheus.DefaultRegisterer),
		ITNProxyTarget: proxyTarget,
	})

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{Addr: addr, Handler: router}
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
