package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/tracklock/tracklock-backend/api/routes"
	"github.com/tracklock/tracklock-backend/internal/intents"
	"github.com/tracklock/tracklock-backend/internal/settlement"
	"github.com/tracklock/tracklock-backend/internal/splits"
	"github.com/tracklock/tracklock-backend/pkg/config"
	"github.com/tracklock/tracklock-backend/pkg/db"
	"github.com/tracklock/tracklock-backend/pkg/kvstore"
	"github.com/tracklock/tracklock-backend/pkg/logger"
	"github.com/tracklock/tracklock-backend/pkg/metrics"
	"github.com/tracklock/tracklock-backend/pkg/redis"
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

	if cfg.DB.AutoMigrate {
		if err := dbClient.AutoMigrate(context.Background()); err != nil {
			logg.Error(context.Background(), "failed to migrate schema", err)
			os.Exit(1)
		}
		logg.Info(context.Background(), "schema migrated")
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

	settings, err := kvstore.OpenFile(cfg.Settings.Path)
	if err != nil {
		logg.Error(context.Background(), "failed to open settings store", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	settlementMetrics := metrics.NewSettlementMetrics(registry)

	intentsRepo := intents.NewRepository(dbClient.DB())
	splitsRepo := splits.NewRepository(dbClient.DB())
	settlementRepo := settlement.NewRepository(dbClient.DB())

	settlementSvc, err := settlement.NewService(settlement.ServiceParams{
		TxRunner:        dbClient,
		IntentsRepo:     intentsRepo,
		SplitsRepo:      splitsRepo,
		SettlementsRepo: settlementRepo,
		Settings:        settings,
		Metrics:         settlementMetrics,
		Logger:          logg,
		ReceiptTokenTTL: cfg.Receipts.TokenTTL,
		ReceiptTokenLen: cfg.Receipts.TokenBytes,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create settlement service", err)
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
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			registry,
			intentsRepo,
			splitsRepo,
			settlementRepo,
			settlementSvc,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
