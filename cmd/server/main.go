package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fintrack/internal/config"
	"fintrack/internal/database"
	"fintrack/internal/handlers"
	"fintrack/internal/middleware"
	"fintrack/internal/repositories"
	"fintrack/internal/services"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.Load()

	db, err := database.Initialize(cfg)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	ledgerRepo := repositories.NewLedgerRepository(db)

	// Services
	metrics := services.NewPrometheusMetrics()
	passwordService := services.NewPasswordService(cfg.Security.BCryptCost, cfg.Security.PasswordMinLength)
	tokenService := services.NewTokenService(&cfg.JWT)
	authService := services.NewAuthService(userRepo, passwordService, tokenService, logger)
	aggregator := services.NewAggregator(ledgerRepo)

	var sinks []services.EventSink
	if cfg.Notify.AMQPURL != "" {
		relay, err := services.NewAMQPEventRelay(cfg.Notify.AMQPURL, cfg.Notify.AMQPExchange, metrics, logger)
		if err != nil {
			logger.Error("Failed to connect event relay, continuing without it", "error", err)
		} else {
			sinks = append(sinks, relay)
		}
	}

	broadcaster := services.NewBroadcaster(cfg.Notify.SubscriberBuffer, metrics, logger, sinks...)
	ingestionService := services.NewIngestionService(
		userRepo,
		ledgerRepo,
		aggregator,
		broadcaster,
		metrics,
		services.RetryConfig{MaxAttempts: cfg.Ingest.MaxRetries, Backoff: cfg.Ingest.RetryBackoff},
		logger,
	)
	queryService := services.NewQueryService(userRepo, ledgerRepo, aggregator, logger)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	transactionHandler := handlers.NewTransactionHandler(ingestionService, queryService)
	streamHandler := handlers.NewStreamHandler(broadcaster, tokenService)
	healthHandler := handlers.NewHealthCheckHandler(db)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewValidator()
	e.HTTPErrorHandler = middleware.CustomHTTPErrorHandler

	e.Use(middleware.TraceID())
	e.Use(middleware.PanicRecovery())
	e.Use(middleware.SecurityHeaders())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.Server.CORSAllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
	}))

	// Public endpoints
	e.GET("/health", healthHandler.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	auth := e.Group("/api/auth", middleware.RateLimiter(cfg.Security.RateLimitPerSecond, cfg.Security.RateLimitPerSecond*2))
	auth.POST("/signup", authHandler.Signup)
	auth.POST("/login", authHandler.Login)

	// The summary endpoint stays public so read-only dashboards work
	// without a session.
	e.GET("/api/transactions/getall/:username", transactionHandler.GetAll)

	// Authenticated endpoints
	requireAuth := middleware.RequireAuth(tokenService)
	e.POST("/api/transactions", transactionHandler.Submit, requireAuth)
	e.GET("/api/transactions/list/:username", transactionHandler.List, requireAuth)

	// Live event stream; authenticates itself to support EventSource clients
	e.GET("/transactionHub", streamHandler.Stream)

	if cfg.IsDevelopment() {
		devHandler := handlers.NewDevHandler(ingestionService)
		e.POST("/api/dev/seed/:username", devHandler.Seed)
		logger.Info("Development endpoints enabled")
	}

	srv := &http.Server{
		Addr:        ":" + cfg.Server.Port,
		Handler:     e,
		ReadTimeout: cfg.Server.ReadTimeout,
		// WriteTimeout would cut long-lived event streams, so rely on
		// per-request contexts instead.
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting server", "port", cfg.Server.Port, "environment", cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		broadcaster.Shutdown()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully")
}
