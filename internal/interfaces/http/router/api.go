package router

import (
	"github.com/gin-gonic/gin"
	"github.com/installments/backend/internal/infrastructure/auth"
	"github.com/installments/backend/internal/infrastructure/config"
	"github.com/installments/backend/internal/infrastructure/logger"
	"github.com/installments/backend/internal/interfaces/http/handler"
	"github.com/installments/backend/internal/interfaces/http/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

// Handlers are the HTTP handlers mounted by NewEngine
type Handlers struct {
	Customer     *handler.CustomerHandler
	Contract     *handler.ContractHandler
	Installment  *handler.InstallmentHandler
	Notification *handler.NotificationHandler
	Report       *handler.ReportHandler
	Setting      *handler.SettingHandler
	System       *handler.SystemHandler
}

// EngineConfig carries what the middleware chain needs
type EngineConfig struct {
	HTTP           config.HTTPConfig
	ServiceName    string
	TracingEnabled bool
	HSTS           bool
	Meter          metric.Meter
	Verifier       middleware.TokenVerifier
	// Limiter is consulted only when HTTP.RateLimitEnabled is set
	Limiter middleware.Limiter
	Logger  *zap.Logger
}

// NewEngine builds the gin engine: global middleware, the probes and the
// authenticated /api/v1 tree.
func NewEngine(cfg EngineConfig, h Handlers) (*gin.Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	meter := cfg.Meter
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("installments")
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, err
	}

	cors := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		logger.GinMiddleware(log),
		middleware.Tracing(cfg.ServiceName, cfg.TracingEnabled),
		middleware.HTTPMetrics(meter),
		middleware.Secure(cfg.HSTS),
		middleware.CORS(cors),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	if h.System != nil {
		engine.GET("/health", h.System.Health)
		engine.GET("/ready", h.System.Ready)
	}

	apiMiddleware := []gin.HandlerFunc{
		middleware.JWTAuth(middleware.JWTConfig{Verifier: cfg.Verifier, Logger: log}),
		middleware.SpanEnricher(),
	}
	if cfg.HTTP.RateLimitEnabled && cfg.Limiter != nil {
		apiMiddleware = append(apiMiddleware, middleware.RateLimit(cfg.Limiter, log))
	}

	NewRouter(engine, WithAPIMiddleware(apiMiddleware...)).
		Register(APIGroups(h, middleware.NewPermissionGuard(log))...).
		Setup()

	return engine, nil
}

// APIGroups is the route table of /api/v1. Every route carries the
// permission its caller's role must hold.
func APIGroups(h Handlers, guard *middleware.PermissionGuard) []RouteRegistrar {
	var groups []RouteRegistrar
	can := guard.Require

	if h.Customer != nil {
		groups = append(groups, NewDomainGroup("customers", "/customers").
			GET("", can(auth.PermCustomersRead), h.Customer.List).
			POST("", can(auth.PermCustomersCreate), h.Customer.Create).
			GET("/:id", can(auth.PermCustomersRead), h.Customer.Get).
			PUT("/:id", can(auth.PermCustomersUpdate), h.Customer.Update).
			DELETE("/:id", can(auth.PermCustomersDelete), h.Customer.Delete))
	}

	if h.Contract != nil {
		groups = append(groups, NewDomainGroup("contracts", "/contracts").
			GET("", can(auth.PermContractsRead), h.Contract.List).
			POST("", can(auth.PermContractsCreate), h.Contract.Create).
			GET("/:id", can(auth.PermContractsRead), h.Contract.Get).
			GET("/:id/summary", can(auth.PermContractsRead), h.Contract.Summary).
			PUT("/:id", can(auth.PermContractsUpdate), h.Contract.Update).
			POST("/:id/regenerate", can(auth.PermContractsUpdate), h.Contract.Regenerate).
			POST("/:id/cancel", can(auth.PermContractsUpdate), h.Contract.Cancel).
			DELETE("/:id", can(auth.PermContractsDelete), h.Contract.Delete))
	}

	if h.Installment != nil {
		groups = append(groups, NewDomainGroup("installments", "/installments").
			GET("", can(auth.PermInstallmentsRead), h.Installment.List).
			GET("/overdue", can(auth.PermInstallmentsRead), h.Installment.Overdue).
			GET("/upcoming", can(auth.PermInstallmentsRead), h.Installment.Upcoming).
			GET("/:id", can(auth.PermInstallmentsRead), h.Installment.Get).
			PUT("/:id", can(auth.PermInstallmentsUpdate), h.Installment.Update).
			POST("/:id/pay", can(auth.PermInstallmentsPay), h.Installment.Pay))
	}

	if h.Notification != nil {
		groups = append(groups, NewDomainGroup("notifications", "/notifications").
			GET("", can(auth.PermNotificationsRead), h.Notification.List).
			POST("", can(auth.PermNotificationsSend), h.Notification.Send).
			POST("/reminders", can(auth.PermNotificationsSend), h.Notification.SendReminders).
			POST("/overdue", can(auth.PermNotificationsSend), h.Notification.SendOverdue).
			GET("/:id", can(auth.PermNotificationsRead), h.Notification.Get).
			PATCH("/:id/read", can(auth.PermNotificationsRead), h.Notification.MarkRead).
			DELETE("/:id", can(auth.PermNotificationsDelete), h.Notification.Delete))
	}

	if h.Report != nil {
		groups = append(groups,
			NewDomainGroup("reports", "/reports").
				GET("/dashboard", can(auth.PermReportsRead), h.Report.Dashboard).
				GET("/installments", can(auth.PermReportsRead), h.Report.Installments).
				GET("/customers", can(auth.PermReportsRead), h.Report.Customers).
				GET("/overdue", can(auth.PermReportsRead), h.Report.Overdue).
				GET("/monthly", can(auth.PermReportsRead), h.Report.Monthly),
			NewDomainGroup("exports", "/exports").
				GET("/:kind", can(auth.PermReportsExport), h.Report.Export).
				POST("/:kind/archive", can(auth.PermReportsExport), h.Report.Archive))
	}

	if h.Setting != nil {
		groups = append(groups, NewDomainGroup("settings", "/settings").
			GET("", can(auth.PermSettingsRead), h.Setting.GetAll).
			PUT("", can(auth.PermSettingsUpdate), h.Setting.Update).
			POST("/reset", can(auth.PermSettingsUpdate), h.Setting.Reset).
			GET("/:key", can(auth.PermSettingsRead), h.Setting.Get))
	}

	if h.System != nil {
		groups = append(groups, NewDomainGroup("system", "/system").
			GET("/info", h.System.Info))
	}

	return groups
}
