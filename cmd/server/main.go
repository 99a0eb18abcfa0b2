package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	contractapp "github.com/installments/backend/internal/application/contract"
	customerapp "github.com/installments/backend/internal/application/customer"
	notificationapp "github.com/installments/backend/internal/application/notification"
	reportapp "github.com/installments/backend/internal/application/report"
	settingapp "github.com/installments/backend/internal/application/setting"
	"github.com/installments/backend/internal/domain/notification"
	"github.com/installments/backend/internal/domain/shared"
	"github.com/installments/backend/internal/infrastructure/auth"
	"github.com/installments/backend/internal/infrastructure/cache"
	"github.com/installments/backend/internal/infrastructure/config"
	"github.com/installments/backend/internal/infrastructure/event"
	"github.com/installments/backend/internal/infrastructure/logger"
	"github.com/installments/backend/internal/infrastructure/notifier"
	"github.com/installments/backend/internal/infrastructure/persistence"
	"github.com/installments/backend/internal/infrastructure/scheduler"
	"github.com/installments/backend/internal/infrastructure/storage"
	"github.com/installments/backend/internal/infrastructure/telemetry"
	"github.com/installments/backend/internal/interfaces/http/handler"
	"github.com/installments/backend/internal/interfaces/http/middleware"
	"github.com/installments/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Log, logger.WithService(cfg.App.Name, cfg.App.Env))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting installments backend",
		zap.String("version", version),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	if err := run(cfg, log); err != nil {
		log.Fatal("Server stopped with error", zap.Error(err))
	}
	log.Info("Server exited gracefully")
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx := context.Background()
	clock := shared.SystemClock{}

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()
	meterProvider, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := meterProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()
	meter := meterProvider.Meter("installments")

	logProvider, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := logProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down logger provider", zap.Error(err))
		}
	}()
	log = logProvider.Bridge(log, logger.ParseLevel(cfg.Log.Level))

	profiler, err := telemetry.NewProfiler(cfg.Telemetry, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}()
	profiler.LinkSpans(tracerProvider)

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithSQL(cfg.Telemetry.DBLogFullSQL))
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithGormLogger(gormLog))
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfigFrom(cfg.Telemetry, cfg.Database.DBName), log); err != nil {
		return err
	}
	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meter, log)
	if err != nil {
		return err
	}
	defer func() { _ = dbMetrics.Stop() }()

	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(ctx); err != nil {
			return err
		}
		log.Info("Database schema auto-migrated")
	}

	// Coordination backends: Redis when reachable, in-memory otherwise
	backends, err := cache.NewFactory(cfg.Redis, cfg.Lock,
		cache.WithLogger(log),
		cache.WithClock(clock),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).Create()
	if err != nil {
		return err
	}
	defer func() {
		if err := backends.Close(); err != nil {
			log.Error("Error closing cache backends", zap.Error(err))
		}
	}()

	// Repositories
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	contractRepo := persistence.NewGormContractRepository(db.DB)
	installmentRepo := persistence.NewGormInstallmentRepository(db.DB)
	notificationRepo := persistence.NewGormNotificationRepository(db.DB)
	settingRepo := persistence.NewGormSettingRepository(db.DB)
	reportRepo := persistence.NewGormReportRepository(db.DB)

	// Events and background jobs
	bus := event.NewInMemoryEventBus(log)
	pool := scheduler.NewPool(scheduler.Config{
		Workers:       cfg.Notification.Workers,
		QueueSize:     cfg.Notification.QueueSize,
		JobTimeout:    cfg.Notification.SendTimeout,
		RetryAttempts: scheduler.DefaultConfig().RetryAttempts,
		RetryDelay:    scheduler.DefaultConfig().RetryDelay,
	}, log)

	metrics, err := telemetry.NewInstallmentMetrics(meter, log)
	if err != nil {
		return err
	}
	bus.Subscribe(metrics)

	// Application services
	settingService := settingapp.NewSettingService(settingRepo, backends.Settings, clock, log)

	contractDeps := contractapp.Dependencies{
		Contracts:    contractRepo,
		Installments: installmentRepo,
		Customers:    customerRepo,
		Settings:     settingService,
		Tx:           persistence.NewGormTransactionScope(db.DB),
		Locker:       backends.Locker,
		Events:       bus,
		Clock:        clock,
		Logger:       log,
	}
	lifecycle := contractapp.NewLifecycle(contractDeps)
	contractService := contractapp.NewContractService(contractDeps, lifecycle)
	installmentService := contractapp.NewInstallmentService(contractDeps, lifecycle)
	customerService := customerapp.NewCustomerService(customerRepo, contractRepo, clock, log)

	notificationService := notificationapp.NewNotificationService(notificationapp.Dependencies{
		Notifications:  notificationRepo,
		Customers:      customerRepo,
		Contracts:      contractRepo,
		Installments:   installmentRepo,
		Settings:       settingService,
		Senders:        notifier.NewDefaultRegistry(notifier.Options{Clock: clock, Logger: log}),
		Sweeper:        installmentService,
		Metrics:        metrics,
		DefaultChannel: notification.Channel(cfg.Notification.DefaultChannel),
		SendTimeout:    cfg.Notification.SendTimeout,
		Clock:          clock,
		Logger:         log,
	})
	bus.Subscribe(event.NewIdempotentHandler(
		notificationapp.NewPaymentConfirmationHandler(notificationService, pool, notification.Channel(cfg.Notification.DefaultChannel)),
		backends.Idempotency,
		cfg.Notification.IdempotencyTTL,
		log,
	))

	reportService := reportapp.NewReportService(reportRepo, customerRepo, installmentService, settingService, clock, log)

	var archive reportapp.ObjectStorage
	if cfg.Storage.Enabled() {
		s3Storage, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log), storage.WithClock(clock))
		if err != nil {
			return err
		}
		if err := s3Storage.EnsureBucket(ctx); err != nil {
			log.Warn("Export bucket check failed, archives may fail", zap.Error(err))
		}
		archive = s3Storage
	} else if cfg.App.Env != "production" {
		log.Warn("Export storage not configured, archives kept in memory")
		archive = storage.NewMemoryObjectStorage(clock)
	} else {
		log.Info("Export storage not configured, archiving disabled")
	}
	exportService := reportapp.NewExportService(reportService, installmentRepo, contractRepo, customerRepo, archive,
		reportapp.ExportConfig{KeyPrefix: cfg.Storage.KeyPrefix, PresignExpiry: cfg.Storage.PresignExpiry}, log)

	// HTTP
	if err := middleware.SetupValidator(); err != nil {
		return err
	}
	engine, err := router.NewEngine(router.EngineConfig{
		HTTP:           cfg.HTTP,
		ServiceName:    cfg.Telemetry.ServiceName,
		TracingEnabled: tracerProvider.Enabled(),
		HSTS:           cfg.App.Env == "production",
		Meter:          meter,
		Verifier:       auth.NewJWTService(cfg.JWT, clock),
		Limiter:        backends.RateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow, clock),
		Logger:         log,
	}, router.Handlers{
		Customer:     handler.NewCustomerHandler(customerService),
		Contract:     handler.NewContractHandler(contractService),
		Installment:  handler.NewInstallmentHandler(installmentService),
		Notification: handler.NewNotificationHandler(notificationService),
		Report:       handler.NewReportHandler(reportService, exportService),
		Setting:      handler.NewSettingHandler(settingService),
		System: handler.NewSystemHandler(cfg.App.Name, version, clock, map[string]handler.Pinger{
			"database": db,
			"cache":    handler.PingFunc(backends.Ping),
		}),
	})
	if err != nil {
		return err
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	if err := bus.Start(runCtx); err != nil {
		return err
	}
	if err := pool.Start(runCtx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info("Shutting down server...", zap.String("signal", sig.String()))
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	// Requests are drained; let queued confirmations finish before the
	// database closes.
	if err := bus.Stop(shutdownCtx); err != nil {
		log.Warn("Event bus did not drain", zap.Error(err))
	}
	if err := pool.Stop(shutdownCtx); err != nil {
		log.Warn("Worker pool did not drain", zap.Error(err))
	}
	return nil
}
