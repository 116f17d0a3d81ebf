package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/craftday/craftday-api/internal/checkout"
	"github.com/craftday/craftday-api/internal/config"
	"github.com/craftday/craftday-api/internal/handlers"
	"github.com/craftday/craftday-api/internal/middleware"
	"github.com/craftday/craftday-api/internal/migration"
	"github.com/craftday/craftday-api/internal/notification"
	"github.com/craftday/craftday-api/internal/realtime"
	"github.com/craftday/craftday-api/internal/repository"
	"github.com/craftday/craftday-api/internal/routes"
	"github.com/craftday/craftday-api/internal/temporal"
	"github.com/craftday/craftday-api/internal/temporal/activities"
	"github.com/craftday/craftday-api/internal/temporal/workflows"
	"github.com/craftday/craftday-api/internal/terminal"
	h "github.com/gorilla/handlers"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	_ "github.com/lib/pq" // PostgreSQL driver
	tc "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

type application struct {
	config         *config.Config
	db             *sql.DB
	temporalClient tc.Client
	logger         zerolog.Logger
	notifications  notification.Service
	feed           *realtime.Feed
	registry       *terminal.Registry
}

func main() {
	// Set up structured, level-based logging.
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	logger := zerolog.New(consoleWriter).With().Timestamp().Logger()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.SetFlags(0)
	log.SetOutput(logger)

	temporalLogger := temporal.NewTemporalAdapter(logger)

	gooseAdapter := migration.NewGooseAdapter(logger)
	goose.SetLogger(gooseAdapter)

	// Load configuration.
	cfg := config.Load()

	// Initialize database connection.
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to the database")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to ping database")
	}

	// Run database migrations.
	migration.RunMigrations(cfg.DatabaseURL, logger)

	// Notification service: persisted rows plus the AMQP fanout, with
	// the receipt mailer when email is configured.
	notificationRepo := repository.NewNotificationRepository(db)
	var notifiers []notification.Notifier
	if cfg.Broker.URL != "" {
		notifiers = append(notifiers, notification.NewAMQPNotifier(cfg.Broker.URL, cfg.Broker.Queue, logger))
	}
	notificationService := notification.NewService(notificationRepo, logger, notifiers...)

	var mailer notification.ReceiptMailer
	if cfg.Email.Enabled {
		smtpMailer, err := notification.NewSMTPReceiptMailer(cfg.Email)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to configure receipt mailer")
		}
		mailer = smtpMailer
	}

	// Live invoice change feed, backed by the invoice_events trigger.
	invoiceRepo := repository.NewInvoiceRepository(db)
	feed, err := realtime.NewFeed(cfg.DatabaseURL, invoiceRepo, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open the invoice change feed")
	}
	defer feed.Close()

	tenantRepo := repository.NewTenantRepository(db)
	bridge := notification.NewPaymentBridge(feed, notificationService, invoiceRepo, tenantRepo, mailer, logger)
	defer bridge.Close()

	// Initialize Temporal client.
	temporalClient, err := tc.Dial(tc.Options{
		Logger: temporalLogger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Unable to create Temporal client")
	}
	defer temporalClient.Close()

	// Create the application instance.
	app := &application{
		config:         cfg,
		db:             db,
		temporalClient: temporalClient,
		logger:         logger,
		notifications:  notificationService,
		feed:           feed,
		registry:       terminal.NewRegistry(),
	}

	// Start the Temporal worker in a separate goroutine.
	temporalWorker := app.startTemporalWorker(logger)

	// Initialize the HTTP router and middleware.
	router := app.initRouter(logger)
	loggedRouter := middleware.LoggingMiddleware(app.logger)(router)
	corsHandler := h.CORS(
		h.AllowedOrigins([]string{"http://localhost:3000"}),
		h.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		h.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		h.AllowCredentials(),
	)(loggedRouter)

	// Start the HTTP server and handle graceful shutdown.
	app.startServer(corsHandler, temporalWorker, logger)

	logger.Info().Msg("Application terminated.")
}

// initRouter sets up all HTTP handlers and returns the router.
func (app *application) initRouter(logger zerolog.Logger) http.Handler {
	// Repositories
	userRepo := repository.NewUserRepository(app.db)
	tenantRepo := repository.NewTenantRepository(app.db)
	invoiceRepo := repository.NewInvoiceRepository(app.db)
	apptRepo := repository.NewAppointmentRepository(app.db)
	catalogRepo := repository.NewCatalogRepository(app.db)

	checkoutClient := checkout.NewClient(app.config.Checkout.BaseURL)

	// Redis backs the assistant quota; absent config degrades to open.
	var rdb *redis.Client
	if app.config.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     app.config.Redis.Addr,
			Password: app.config.Redis.Password,
			DB:       app.config.Redis.DB,
		})
	}

	// Handlers
	authHandler := handlers.NewAuthHandler(userRepo, app.config.JWTSecret, logger)
	tenantHandler := handlers.NewTenantHandler(tenantRepo, app.notifications, logger)
	invoiceHandler := handlers.NewInvoiceHandler(invoiceRepo, logger)
	apptHandler := handlers.NewAppointmentHandler(apptRepo, catalogRepo, logger)
	bookingHandler := handlers.NewBookingHandler(tenantRepo, apptRepo, temporal.NewSeriesRunner(app.temporalClient), logger)
	terminalHandler := handlers.NewTerminalHandler(tenantRepo, checkoutClient, app.feed, app.registry, logger)
	dashboardHandler := handlers.NewDashboardHandler(tenantRepo, invoiceRepo, apptRepo, logger)
	notificationHandler := handlers.NewNotificationHandler(app.notifications, logger)
	assistantHandler := handlers.NewAssistantHandler(logger)

	return routes.NewRouter(routes.Handlers{
		Auth:          authHandler,
		Tenant:        tenantHandler,
		Invoice:       invoiceHandler,
		Appointment:   apptHandler,
		Booking:       bookingHandler,
		Terminal:      terminalHandler,
		Dashboard:     dashboardHandler,
		Notification:  notificationHandler,
		Assistant:     assistantHandler,
		TenantRepo:    tenantRepo,
		AssistantGate: middleware.AssistantQuota(rdb, tenantRepo, app.config.Assistant, logger),
	})
}

func (app *application) startTemporalWorker(logger zerolog.Logger) worker.Worker {
	activityImpl := &activities.Activities{
		AppointmentRepo: repository.NewAppointmentRepository(app.db),
		CatalogRepo:     repository.NewCatalogRepository(app.db),
		Checkout:        checkout.NewClient(app.config.Checkout.BaseURL),
		Notifications:   app.notifications,
	}

	w := worker.New(app.temporalClient, temporal.TaskQueueName, worker.Options{})

	w.RegisterWorkflow(workflows.RecurringBookingWorkflow)
	w.RegisterActivity(activityImpl)

	// Start the worker in a goroutine so it doesn't block.
	go func() {
		logger.Info().Msg("Starting Temporal worker...")
		if err := w.Run(worker.InterruptCh()); err != nil {
			logger.Fatal().Err(err).Msg("Unable to start worker")
		}
	}()

	return w
}

// startServer launches the HTTP server and handles graceful shutdown.
func (app *application) startServer(handler http.Handler, temporalWorker worker.Worker, logger zerolog.Logger) {
	server := &http.Server{
		Addr:    ":" + app.config.ServerPort,
		Handler: handler,
	}

	// Channel to listen for server errors
	serverErrCh := make(chan error, 1)
	go func() {
		logger.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	// Wait for an interrupt signal or a server error.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info().Msgf("Received signal: %s. Shutting down...", sig)
	case err := <-serverErrCh:
		logger.Error().Err(err).Msg("Server error occurred")
	}

	// Gracefully shut down the HTTP server.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		logger.Info().Msg("HTTP server shutdown complete.")
	}

	// Close every open terminal before the feed goes away.
	app.registry.CloseAll()

	// Stop the Temporal worker.
	logger.Info().Msg("Stopping Temporal worker...")
	temporalWorker.Stop()
	logger.Info().Msg("Temporal worker stopped.")
}
