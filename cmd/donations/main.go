package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DanielPopoola/church-donations/db"
	"github.com/DanielPopoola/church-donations/internal/api"
	"github.com/DanielPopoola/church-donations/internal/application/services"
	"github.com/DanielPopoola/church-donations/internal/config"
	"github.com/DanielPopoola/church-donations/internal/infrastructure/persistence/postgres"
	"github.com/DanielPopoola/church-donations/internal/infrastructure/processor"
	"github.com/DanielPopoola/church-donations/internal/interfaces/rest/handlers"
	"github.com/DanielPopoola/church-donations/internal/interfaces/rest/middleware"
	"github.com/DanielPopoola/church-donations/internal/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger(cfg.Primary.Env)
	slog.SetDefault(logger)

	logger.Info("starting donations service",
		"env", cfg.Primary.Env,
		"port", cfg.Server.Port,
		"log_level", cfg.Logger.Level,
	)

	policy, err := cfg.Donations.AmountPolicy()
	if err != nil {
		logger.Error("invalid donation policy", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	database, err := postgres.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.Migrate(ctx, database.Pool); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	donationRepo := postgres.NewDonationRepository(database)
	campaignRepo := postgres.NewCampaignRepository(database)
	coordinator := postgres.NewTransactionCoordinator(database)

	stripeClient := processor.NewStripeClient(cfg.Stripe, logger)
	retryProcessor := processor.NewRetryProcessor(stripeClient, cfg.Retry)
	verifier := processor.NewStripeWebhookVerifier(cfg.Stripe.WebhookSecret, cfg.Stripe.WebhookTolerance)

	donationService := services.NewDonationService(
		donationRepo,
		campaignRepo,
		coordinator,
		retryProcessor,
		policy,
		cfg.Donations.DefaultCurrency,
		logger,
	)
	reconcileService := services.NewReconcileService(verifier, coordinator, logger)
	queryService := services.NewQueryService(donationRepo, campaignRepo)

	h := handlers.NewHandlers(
		donationService,
		reconcileService,
		queryService,
		database,
		logger,
	)

	doc, err := api.Load()
	if err != nil {
		logger.Error("failed to load api document", "error", err)
		os.Exit(1)
	}
	validateRequests, err := middleware.OpenAPIValidator(doc, logger)
	if err != nil {
		logger.Error("failed to build request validator", "error", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	api.RegisterDocsRoutes(mux)
	h.RegisterRoutes(mux, middleware.NewAuth(cfg.Auth.JWTSecret, logger))

	handler := validateRequests(mux)
	handler = middleware.Recovery(logger)(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Timeout(cfg.Server.ReadTimeout, "/docs/")(handler)

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	reconciler := worker.NewReconciler(
		donationRepo,
		retryProcessor,
		reconcileService,
		cfg.Worker.Interval,
		cfg.Worker.StaleAfter,
		cfg.Worker.BatchSize,
		logger,
	)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	go reconciler.Start(workerCtx)

	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
