package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/regulariza/process-management/internal"
	"github.com/regulariza/process-management/internal/analytics"
	"github.com/regulariza/process-management/internal/audit"
	auditPostgres "github.com/regulariza/process-management/internal/audit/postgres"
	"github.com/regulariza/process-management/internal/auth"
	authPostgres "github.com/regulariza/process-management/internal/auth/postgres"
	"github.com/regulariza/process-management/internal/core/events"
	"github.com/regulariza/process-management/internal/document"
	documentPostgres "github.com/regulariza/process-management/internal/document/postgres"
	"github.com/regulariza/process-management/internal/notification"
	notificationPostgres "github.com/regulariza/process-management/internal/notification/postgres"
	"github.com/regulariza/process-management/internal/notification/sms"
	"github.com/regulariza/process-management/internal/process"
	processPostgres "github.com/regulariza/process-management/internal/process/postgres"
	"github.com/regulariza/process-management/internal/reporting"
	reportingPostgres "github.com/regulariza/process-management/internal/reporting/postgres"
	"github.com/regulariza/process-management/internal/transport/rest"
	"github.com/regulariza/process-management/internal/user"
	userPostgres "github.com/regulariza/process-management/internal/user/postgres"
	"github.com/regulariza/process-management/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config    *internal.Config
	DB        *sqlx.DB
	Router    *chi.Mux
	Logger    *slog.Logger
	SMSClient *sms.Client
	Scheduler *notification.ReminderScheduler
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if deps.Scheduler != nil {
		if err := deps.Scheduler.Start(); err != nil {
			deps.Logger.Error("failed to start reminder scheduler", "error", err)
		}
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if deps.Scheduler != nil {
			deps.Scheduler.Stop()
		}
		if deps.SMSClient != nil {
			deps.SMSClient.Shutdown()
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"))
	lg := logger.L()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	eventBus := events.NewEventBus(lg)

	// audit trail
	auditRepo := auditPostgres.NewAuditRepository(gormDB)
	auditService := audit.NewService(auditRepo, eventBus, lg)
	auditHandler := audit.NewHandler(auditService)

	// authentication
	tokenGen := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)
	authRepo := authPostgres.NewRepository(gormDB)
	authService := auth.NewService(authRepo, tokenGen, config.Security.BCryptCost)
	authHandler := auth.NewHandler(authService)
	rbac := auth.NewRBACAuthorization(lg)

	// case management
	processRepo := processPostgres.NewProcessRepository(gormDB)
	processService := process.NewService(processRepo, auditService, eventBus, lg)
	processHandler := process.NewHandler(processService)

	// document workflow
	documentRepo := documentPostgres.NewDocumentRepository(gormDB)
	documentService := document.NewService(documentRepo, processRepo, auditService, eventBus, lg)
	documentHandler := document.NewHandler(documentService)

	// outbound sms
	smsClient := sms.NewClient(sms.Config{
		Enabled:    config.SMS.Enabled,
		APIURL:     config.SMS.APIURL,
		AccountSID: config.SMS.AccountSID,
		AuthToken:  config.SMS.AuthToken,
		FromNumber: config.SMS.FromNumber,
		Timeout:    config.SMS.Timeout,
	}, lg)

	// users and clients
	userRepo := userPostgres.NewUserRepository(gormDB)
	userService := user.NewService(userRepo, auditService, smsClient, config.Server.BaseURL, config.Security.BCryptCost, lg)
	userHandler := user.NewHandler(userService)

	// notifications
	notificationRepo := notificationPostgres.NewNotificationRepository(gormDB)
	notificationService := notification.NewService(notificationRepo, smsClient, userService, lg)
	notificationHandler := notification.NewHandler(notificationService)
	notification.NewEventHandler(notificationService, lg).RegisterEventHandlers(eventBus)

	// usage analytics
	analyticsClient := analytics.NewClient(analytics.Config{
		Enabled:     config.Analytics.Enabled,
		EndpointURL: config.Analytics.EndpointURL,
		WriteKey:    config.Analytics.WriteKey,
	}, lg)
	analytics.NewEventHandler(analyticsClient, lg).RegisterEventHandlers(eventBus)

	// reporting and crm
	reportingRepo := reportingPostgres.NewReportingRepository(gormDB)
	reportingService := reporting.NewService(reportingRepo, lg)
	crmClient := reporting.NewCRMClient(reporting.CRMConfig{
		Enabled: config.CRM.Enabled,
		APIURL:  config.CRM.APIURL,
		APIKey:  config.CRM.APIKey,
		Timeout: config.CRM.Timeout,
	}, lg)
	reportingHandler := reporting.NewHandler(reportingService, crmClient, processRepo, userService)

	var scheduler *notification.ReminderScheduler
	if config.Reminder.Enabled {
		scheduler = notification.NewReminderScheduler(
			notificationService,
			processRepo,
			config.Reminder.Schedule,
			config.Reminder.WarningDays,
			lg,
		)
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, db.DB, rest.Handlers{
		Auth:         authHandler,
		User:         userHandler,
		Process:      processHandler,
		Document:     documentHandler,
		Audit:        auditHandler,
		Notification: notificationHandler,
		Reporting:    reportingHandler,
	}, rbac, lg)

	return &Dependencies{
		Config:    config,
		Logger:    lg,
		DB:        db,
		Router:    router,
		SMSClient: smsClient,
		Scheduler: scheduler,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
