package integration

import (
	"context"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	contractapp "github.com/installments/backend/internal/application/contract"
	customerapp "github.com/installments/backend/internal/application/customer"
	notificationapp "github.com/installments/backend/internal/application/notification"
	reportapp "github.com/installments/backend/internal/application/report"
	settingapp "github.com/installments/backend/internal/application/setting"
	"github.com/installments/backend/internal/domain/notification"
	"github.com/installments/backend/internal/domain/shared"
	"github.com/installments/backend/internal/infrastructure/cache"
	"github.com/installments/backend/internal/infrastructure/config"
	"github.com/installments/backend/internal/infrastructure/event"
	"github.com/installments/backend/internal/infrastructure/notifier"
	"github.com/installments/backend/internal/infrastructure/persistence"
	"github.com/installments/backend/internal/infrastructure/scheduler"
	"github.com/installments/backend/internal/interfaces/http/handler"
	"github.com/installments/backend/internal/interfaces/http/middleware"
	"github.com/installments/backend/internal/interfaces/http/router"
	"github.com/installments/backend/tests/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var now = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

// server is the full HTTP stack over sqlite with in-memory coordination
type server struct {
	engine *gin.Engine
	db     *gorm.DB
	tokens *testutil.Tokens
	events *testutil.MockEventHandler
}

type serverOption func(*serverOptions)

type serverOptions struct {
	archive reportapp.ObjectStorage
}

// withArchive enables export archiving into store
func withArchive(store reportapp.ObjectStorage) serverOption {
	return func(o *serverOptions) { o.archive = store }
}

func newServer(t *testing.T, opts ...serverOption) *server {
	t.Helper()
	return newServerOn(t, testutil.NewSQLiteDB(t, persistence.AllModels()...), opts...)
}

// newServerOn wires the stack on an already migrated database. Archiving is
// disabled unless withArchive is given.
func newServerOn(t *testing.T, db *gorm.DB, opts ...serverOption) *server {
	t.Helper()
	var o serverOptions
	for _, opt := range opts {
		opt(&o)
	}
	log := zap.NewNop()
	clock := shared.NewFixedClock(now)

	backends := cache.NewFactory(config.RedisConfig{}, config.LockConfig{}, cache.WithClock(clock)).InMemory()
	t.Cleanup(func() { _ = backends.Close() })

	customers := persistence.NewGormCustomerRepository(db)
	contracts := persistence.NewGormContractRepository(db)
	installments := persistence.NewGormInstallmentRepository(db)

	bus := event.NewInMemoryEventBus(log)
	pool := scheduler.NewPool(scheduler.Config{
		Workers:       1,
		QueueSize:     16,
		JobTimeout:    5 * time.Second,
		RetryAttempts: 1,
		RetryDelay:    10 * time.Millisecond,
	}, log)
	recorded := testutil.NewMockEventHandler()
	bus.Subscribe(recorded)

	settings := settingapp.NewSettingService(persistence.NewGormSettingRepository(db), backends.Settings, clock, log)
	deps := contractapp.Dependencies{
		Contracts:    contracts,
		Installments: installments,
		Customers:    customers,
		Settings:     settings,
		Tx:           persistence.NewGormTransactionScope(db),
		Locker:       backends.Locker,
		Events:       bus,
		Clock:        clock,
		Logger:       log,
	}
	lifecycle := contractapp.NewLifecycle(deps)
	contractService := contractapp.NewContractService(deps, lifecycle)
	installmentService := contractapp.NewInstallmentService(deps, lifecycle)

	notifications := notificationapp.NewNotificationService(notificationapp.Dependencies{
		Notifications:  persistence.NewGormNotificationRepository(db),
		Customers:      customers,
		Contracts:      contracts,
		Installments:   installments,
		Settings:       settings,
		Senders:        notifier.NewDefaultRegistry(notifier.Options{Clock: clock, Logger: log}),
		Sweeper:        installmentService,
		DefaultChannel: notification.ChannelSystem,
		SendTimeout:    time.Second,
		Clock:          clock,
		Logger:         log,
	})
	bus.Subscribe(event.NewIdempotentHandler(
		notificationapp.NewPaymentConfirmationHandler(notifications, pool, notification.ChannelSystem),
		backends.Idempotency, time.Hour, log,
	))

	reports := reportapp.NewReportService(persistence.NewGormReportRepository(db), customers, installmentService, settings, clock, log)
	exports := reportapp.NewExportService(reports, installments, contracts, customers, o.archive,
		reportapp.ExportConfig{KeyPrefix: "exports/", PresignExpiry: time.Hour}, log)

	require.NoError(t, middleware.SetupValidator())
	tokens := testutil.NewTokens(clock)
	engine, err := router.NewEngine(router.EngineConfig{
		HTTP:        config.HTTPConfig{MaxBodySize: 1 << 20},
		ServiceName: "installments-integration",
		Verifier:    tokens.Service,
		Logger:      log,
	}, router.Handlers{
		Customer:     handler.NewCustomerHandler(customerapp.NewCustomerService(customers, contracts, clock, log)),
		Contract:     handler.NewContractHandler(contractService),
		Installment:  handler.NewInstallmentHandler(installmentService),
		Notification: handler.NewNotificationHandler(notifications),
		Report:       handler.NewReportHandler(reports, exports),
		Setting:      handler.NewSettingHandler(settings),
		System:       handler.NewSystemHandler("installments", "test", clock, nil),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, bus.Start(ctx))
	require.NoError(t, pool.Start(ctx))
	t.Cleanup(func() {
		stopCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = bus.Stop(stopCtx)
		_ = pool.Stop(stopCtx)
		cancel()
	})

	return &server{engine: engine, db: db, tokens: tokens, events: recorded}
}
