package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"billetter/api/routes"
	"billetter/internal/admin"
	"billetter/internal/analytics"
	"billetter/internal/bookings"
	"billetter/internal/cleanup"
	"billetter/internal/events"
	"billetter/internal/notifications"
	"billetter/internal/payments"
	"billetter/internal/seats"
	"billetter/internal/shared/config"
	"billetter/internal/shared/database"
	"billetter/pkg/cache"
	"billetter/pkg/logger"
	"billetter/pkg/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	appLogger := logger.GetDefault()

	if err := godotenv.Load(); err != nil {
		appLogger.Info("No .env file found, using system environment variables")
	}

	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	db, err := database.InitDB(cfg)
	if err != nil {
		appLogger.Error("failed to connect", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	cacheService := cache.NewService(db.Redis)

	// Notifications are optional; payment resolution works without them.
	producer, err := notifications.NewProducer(cfg.Kafka)
	if err != nil {
		appLogger.Error("failed to start kafka producer, continuing without notifications", slog.Any("error", err))
		producer = nil
	}
	if producer != nil {
		defer producer.Close()
	}

	// Seat engine
	seatRepo := seats.NewRepository(db.PostgreSQL)
	locks := seats.NewLockStore(db.Redis, cfg.Redis.SeatLockTTL)
	facade := seats.NewCacheFacade(seatRepo, cacheService, cfg.Redis.SeatsCacheTTL)

	// Payment gateway + breaker + lifecycle
	breaker := payments.NewCircuitBreaker(cfg.CircuitBreaker.FailureThreshold, cfg.CircuitBreaker.Timeout)
	gateway := payments.NewClient(cfg.Payment, breaker)
	var notifier payments.Notifier
	if producer != nil {
		notifier = producer
	}
	lifecycle := payments.NewLifecycle(db.PostgreSQL, locks, facade, notifier)
	dispatcher := payments.NewDispatcher(lifecycle, gateway, db.PostgreSQL)
	paymentsCtrl := payments.NewController(dispatcher, lifecycle, breaker)

	// Bookings
	bookingRepo := bookings.NewRepository(db.PostgreSQL)
	bookingService := bookings.NewService(bookingRepo, gateway, locks, facade)
	seatService := seats.NewService(seatRepo, bookingRepo, locks, facade)

	// Events, analytics, admin
	eventRepo := events.NewRepository(db.PostgreSQL)
	eventService := events.NewService(eventRepo, cacheService, cfg.Redis.EventsTTL, cfg.Redis.SearchTTL)
	analyticsRepo := analytics.NewRepository(db.PostgreSQL)
	adminService := admin.NewService(db.PostgreSQL, cacheService)

	// Cleanup service with its background runner
	cleanupService := cleanup.NewService(db.PostgreSQL, locks, seatRepo, lifecycle, gateway, cfg.Cleanup)
	runnerCtx, runnerCancel := context.WithCancel(context.Background())
	defer runnerCancel()
	runner := cleanup.NewRunner(cleanupService, cfg.Cleanup.Interval)
	runner.Start(runnerCtx)
	defer runner.Stop()

	var rateLimiter *ratelimit.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = ratelimit.NewRateLimiter(db.Redis, cfg.RateLimit)
	}

	router := routes.Setup(routes.Deps{
		Config:         cfg,
		DB:             db,
		Cache:          cacheService,
		SeatService:    seatService,
		BookingService: bookingService,
		EventService:   eventService,
		EventRepo:      eventRepo,
		AnalyticsRepo:  analyticsRepo,
		PaymentsCtrl:   paymentsCtrl,
		AdminService:   adminService,
		CleanupService: cleanupService,
		RateLimiter:    rateLimiter,
	})

	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        router,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	go func() {
		appLogger.Info("server starting",
			slog.String("addr", srv.Addr),
			slog.String("version", Version),
			slog.String("build_time", BuildTime),
			slog.String("commit", GitCommit),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("forced shutdown", slog.Any("error", err))
	}
	appLogger.Info("server stopped")
}
