package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lexbid/lexbid-backend/api/controllers"
	"github.com/lexbid/lexbid-backend/api/routes"
	"github.com/lexbid/lexbid-backend/internal/audit"
	"github.com/lexbid/lexbid-backend/internal/cases"
	"github.com/lexbid/lexbid-backend/internal/files"
	"github.com/lexbid/lexbid-backend/internal/payments"
	"github.com/lexbid/lexbid-backend/internal/quotes"
	"github.com/lexbid/lexbid-backend/internal/reconciliation"
	"github.com/lexbid/lexbid-backend/pkg/config"
	"github.com/lexbid/lexbid-backend/pkg/db"
	"github.com/lexbid/lexbid-backend/pkg/env"
	"github.com/lexbid/lexbid-backend/pkg/logger"
	"github.com/lexbid/lexbid-backend/pkg/metrics"
	"github.com/lexbid/lexbid-backend/pkg/migrate"
	"github.com/lexbid/lexbid-backend/pkg/provider"
	"github.com/lexbid/lexbid-backend/pkg/redis"
	"github.com/lexbid/lexbid-backend/pkg/storage"
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

	providerClient, err := provider.NewClient(context.Background(), cfg.Provider, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create provider client", err)
		os.Exit(1)
	}
	storageClient, err := storage.NewClient(context.Background(), cfg.Storage, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create storage client", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	auditSvc, err := audit.NewService(audit.NewRepository(gormDB), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create audit service", err)
		os.Exit(1)
	}

	casesRepo := cases.NewRepository(gormDB)
	quotesRepo := quotes.NewRepository(gormDB)
	paymentsRepo := payments.NewRepository(gormDB)
	filesRepo := files.NewRepository(gormDB)

	casesSvc, err := cases.NewService(casesRepo, quotesRepo, auditSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create case service", err)
		os.Exit(1)
	}
	quotesSvc, err := quotes.NewService(quotesRepo, casesRepo, auditSvc, cfg.Quotes)
	if err != nil {
		logg.Error(context.Background(), "failed to create quote service", err)
		os.Exit(1)
	}
	paymentsSvc, err := payments.NewService(paymentsRepo, quotesRepo, providerClient, auditSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}
	filesSvc, err := files.NewService(filesRepo, casesRepo, quotesRepo, storageClient, auditSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create file service", err)
		os.Exit(1)
	}

	reconciliationSvc, err := reconciliation.NewService(
		dbClient,
		paymentsRepo,
		casesRepo,
		quotesRepo,
		auditSvc,
		reconciliation.NewGuard(redisClient, cfg.Provider.IdempotencyTTL, logg),
		metrics.NewReconciliationMetrics(prometheus.DefaultRegisterer),
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create reconciliation service", err)
		os.Exit(1)
	}

	addr := ":" + env.Get("PORT", cfg.App.Port)
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config: cfg,
			Logger: logg,
			Pingers: map[string]controllers.Pinger{
				"database": dbClient,
				"redis":    redisClient,
				"storage":  storageClient,
			},
			ProviderClient: providerClient,
			Cases:          casesSvc,
			Quotes:         quotesSvc,
			Payments:       paymentsSvc,
			Files:          filesSvc,
			Reconciliation: reconciliationSvc,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
