package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	appar "github.com/erp/receivables/internal/application/receivable"
	"github.com/erp/receivables/internal/domain/shared/valueobject"
	"github.com/erp/receivables/internal/infrastructure/cache"
	"github.com/erp/receivables/internal/infrastructure/config"
	"github.com/erp/receivables/internal/infrastructure/event"
	"github.com/erp/receivables/internal/infrastructure/logger"
	"github.com/erp/receivables/internal/infrastructure/notification"
	"github.com/erp/receivables/internal/infrastructure/persistence"
	"github.com/erp/receivables/internal/infrastructure/scheduler"
	"github.com/erp/receivables/internal/infrastructure/telemetry"
	"github.com/erp/receivables/internal/interfaces/http/handler"
	"github.com/erp/receivables/internal/interfaces/http/middleware"
	"github.com/erp/receivables/internal/interfaces/http/router"
)

//	@title			Receivables Ledger API
//	@version		1.0
//	@description	Accounts-receivable ledger: invoices, payments, reversals and credit exposure

//	@host		localhost:8080
//	@BasePath	/api/v1

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}, cfg.App.Name)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting receivables ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Profiling starts first so span profiles can label CPU samples.
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Telemetry.ProfilingEnabled,
		ServerAddress:     cfg.Telemetry.ProfilingServerAddress,
		ApplicationName:   cfg.Telemetry.ServiceName,
		BasicAuthUser:     cfg.Telemetry.ProfilingAuthUser,
		BasicAuthPassword: cfg.Telemetry.ProfilingAuthPassword,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize profiler", zap.Error(err))
	}

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
		SpanProfiles:      profiler.IsEnabled() && cfg.Telemetry.SpanProfilesEnabled,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	loggerProvider, err := telemetry.NewLoggerProvider(context.Background(), telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	log = loggerProvider.Bridge(log, logger.ParseLevel(cfg.Log.Level))

	var (
		ledgerMetrics *telemetry.LedgerMetrics
		httpMeter     metric.Meter
	)
	if meterProvider.IsEnabled() {
		meter := meterProvider.Meter(cfg.Telemetry.ServiceName)
		if ledgerMetrics, err = telemetry.NewLedgerMetrics(meter); err != nil {
			log.Fatal("Failed to register ledger metrics", zap.Error(err))
		}
		httpMeter = meter
	}

	// Database
	db, err := persistence.NewDatabase(&cfg.Database, persistence.DatabaseOptions{
		Logger:   log,
		LogLevel: logger.MapGormLogLevel(cfg.Log.Level),
		Tracing: telemetry.DBTracingConfig{
			Enabled:         cfg.Telemetry.DBTraceEnabled,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: telemetry.DefaultDBTracingConfig().SlowQueryThresh,
		},
	})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully", zap.String("driver", db.Driver()))

	// Repositories
	defaultCurrency := persistence.WithDefaultCurrency(valueobject.Currency(cfg.Ledger.DefaultCurrency))
	scope := persistence.NewGormTransactionScope(db.DB, cfg.Database.LockTimeout, defaultCurrency)
	customerRepo := persistence.NewGormCustomerRepository(db.DB, defaultCurrency)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)

	// Reminder claims across instances
	claims, err := cache.NewClaimStoreFactory(cfg.Redis, cache.WithLogger(log)).CreateStore()
	if err != nil {
		log.Fatal("Failed to create claim store", zap.Error(err))
	}
	defer func() {
		if err := claims.Close(); err != nil {
			log.Error("Error closing claim store", zap.Error(err))
		}
	}()
	reminderLogs := cache.NewReminderGuard(persistence.NewGormReminderLogRepository(db.DB), claims, log)

	// Event bus
	eventBus := event.NewBus(log)
	eventBus.Subscribe(event.NewAuditHandler(log))

	// Email delivery
	sender, err := notification.NewSender(cfg.Mail, log)
	if err != nil {
		log.Fatal("Failed to initialize email sender", zap.Error(err))
	}
	renderer, err := notification.NewTemplateRenderer(notification.WithCompanyName(cfg.Mail.FromName))
	if err != nil {
		log.Fatal("Failed to parse reminder templates", zap.Error(err))
	}

	// Application services
	creditEngine := appar.NewCreditExposureEngine(customerRepo, invoiceRepo, ledgerMetrics, log)
	invoiceService := appar.NewInvoiceService(scope, creditEngine, eventBus, ledgerMetrics, log)
	ledgerService := appar.NewPaymentLedgerService(scope, eventBus, ledgerMetrics, log)
	overdueService := appar.NewOverdueService(scope, eventBus, ledgerMetrics, log)
	reminderService := appar.NewReminderDispatchService(invoiceRepo, customerRepo, reminderLogs, sender, renderer, ledgerMetrics, log)

	// Daily overdue sweep and reminder dispatch
	if cfg.Scheduler.Enabled {
		executor := scheduler.NewLedgerJobExecutor(overdueService, reminderService, log)
		jobScheduler, err := scheduler.NewScheduler(cfg.Scheduler, executor, log)
		if err != nil {
			log.Fatal("Failed to create ledger scheduler", zap.Error(err))
		}
		if err := jobScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start ledger scheduler", zap.Error(err))
		}
		defer func() {
			if err := jobScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping ledger scheduler", zap.Error(err))
			}
		}()

		trigger := scheduler.NewCronTrigger(cfg.Scheduler, jobScheduler, log)
		if err := trigger.Start(context.Background()); err != nil {
			log.Fatal("Failed to start daily trigger", zap.Error(err))
		}
		defer func() {
			if err := trigger.Stop(context.Background()); err != nil {
				log.Error("Error stopping daily trigger", zap.Error(err))
			}
		}()
		log.Info("Ledger scheduler started",
			zap.Int("daily_hour", cfg.Scheduler.DailyHour),
			zap.Int("daily_minute", cfg.Scheduler.DailyMinute),
			zap.Int("max_concurrent_jobs", cfg.Scheduler.MaxConcurrentJobs),
		)
	}

	// HTTP
	corsConfig := middleware.DefaultCORSConfig()
	if cfg.App.Env != "production" {
		corsConfig.AllowOrigins = []string{"*"}
	}
	engine, err := router.NewEngine(router.Config{
		ServiceName:    cfg.Telemetry.ServiceName,
		Tracing:        tracerProvider.IsEnabled(),
		Meter:          httpMeter,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		CORS:           corsConfig,
		TrustedProxies: cfg.HTTP.TrustedProxies,
	}, router.Handlers{
		Invoices:  handler.NewInvoiceHandler(invoiceService, ledgerService),
		Payments:  handler.NewPaymentHandler(ledgerService),
		Customers: handler.NewCustomerHandler(creditEngine),
		Health: handler.NewHealthHandler(map[string]handler.HealthCheck{
			"database": func(context.Context) error { return db.Ping() },
			"claims": func(ctx context.Context) error {
				_, err := claims.IsClaimed(ctx, "health")
				return err
			},
		}).
			WithDetail("database_pool", func() (any, error) {
				stats, err := db.Stats()
				return stats, err
			}).
			WithDetail("events", func() (any, error) { return eventBus.Stats(), nil }),
	}, log)
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := eventBus.Close(ctx); err != nil {
		log.Error("Error closing event bus", zap.Error(err))
	}
	if err := meterProvider.Shutdown(ctx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(ctx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}

	log.Info("Server exited gracefully")
	if err := loggerProvider.Shutdown(ctx); err != nil {
		log.Error("Error shutting down logger provider", zap.Error(err))
	}
}

