package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/parceldesk/parceldesk/internal/analytics"
	"github.com/parceldesk/parceldesk/internal/app"
	"github.com/parceldesk/parceldesk/internal/auth"
	"github.com/parceldesk/parceldesk/internal/authz"
	"github.com/parceldesk/parceldesk/internal/billing"
	billingexport "github.com/parceldesk/parceldesk/internal/billing/export"
	"github.com/parceldesk/parceldesk/internal/fleet"
	"github.com/parceldesk/parceldesk/internal/observability"
	"github.com/parceldesk/parceldesk/internal/orders"
	"github.com/parceldesk/parceldesk/internal/platform/cache"
	"github.com/parceldesk/parceldesk/internal/platform/db"
	"github.com/parceldesk/parceldesk/internal/shared"
	"github.com/parceldesk/parceldesk/internal/users"
	"github.com/parceldesk/parceldesk/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "parceldesk_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo)

	tokenIssuer := auth.NewTokenIssuer(cfg.TokenSecret, cfg.TokenTTL)
	authService := auth.NewService(logger, usersService, tokenIssuer, cfg.AuthLookupTimeout, authz.Role(cfg.AuthFallbackRole))
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	guard := authz.Middleware{Logger: logger}

	ordersRepo := orders.NewRepository(dbpool)
	ordersService := orders.NewService(ordersRepo)
	ordersHandler := orders.NewHandler(logger, ordersService, guard)

	metrics := observability.NewMetrics()

	billingRepo := billing.NewRepository(dbpool)
	billingService := billing.NewService(ordersRepo, billingRepo)

	analyticsCache := analytics.NewCache(redisClient, 10*time.Minute)
	analyticsService := analytics.NewService(billingService, analyticsCache)
	analyticsHandler := analytics.NewHandler(logger, analyticsService, guard)
	if err := analyticsCache.ListenForInvalidation(ctx, ""); err != nil {
		logger.Warn("cache invalidation listener", slog.Any("error", err))
	}

	billingHandler := billing.NewHandler(logger, billingService, guard, metrics, analyticsService)
	pdfExporter := billingexport.NewPDFExporter(cfg.GotenbergURL)
	exportHandler := billingexport.NewHandler(logger, billingService, guard, pdfExporter)

	fleetRepo := fleet.NewRepository(dbpool)
	fleetService := fleet.NewService(fleetRepo)
	fleetHandler := fleet.NewHandler(logger, fleetService, guard)

	usersHandler := users.NewHandler(logger, usersService, guard)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessionManager,
		AuthService:      authService,
		AuthHandler:      authHandler,
		UsersHandler:     usersHandler,
		OrdersHandler:    ordersHandler,
		BillingHandler:   billingHandler,
		ExportHandler:    exportHandler,
		FleetHandler:     fleetHandler,
		AnalyticsHandler: analyticsHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
