package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"hr-service/internal/auth"
	"hr-service/internal/busaccess"
	"hr-service/internal/config"
	"hr-service/internal/db"
	"hr-service/internal/docs"
	"hr-service/internal/document"
	"hr-service/internal/employee"
	"hr-service/internal/health"
	"hr-service/internal/logger"
	"hr-service/internal/messaging"
	"hr-service/internal/metrics"
	"hr-service/internal/middleware"
	"hr-service/internal/note"

	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
)

type App struct {
	config   *config.Config
	router   chi.Router
	server   *http.Server
	logger   *slog.Logger
	database *bun.DB
	producer *messaging.Producer
}

func New() *App {
	slogLogger := logger.NewWithServiceContext("hr-service", "1.0.0")

	// Set as default logger so slog.Info() uses JSON format
	slog.SetDefault(slogLogger)

	slogLogger.Info("initializing application")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	slogLogger.Info("config loaded", "env", cfg.Env)

	app := &App{
		config: cfg,
		router: chi.NewRouter(),
		logger: slogLogger,
	}

	database := db.New(cfg.Database)
	app.database = database

	ctx := context.Background()
	if err := db.RunMigrations(ctx, database,
		(*employee.Employee)(nil),
		(*note.Note)(nil),
		(*busaccess.BusAccess)(nil),
	); err != nil {
		log.Fatal("failed to run migrations:", err)
	}

	appMetrics, err := metrics.New(otel.Meter("hr-service"))
	if err != nil {
		slogLogger.Warn("failed to initialize metrics, continuing without", "error", err)
		appMetrics = metrics.NewMock()
	}

	// Apply CORS middleware globally
	app.router.Use(middleware.CORS(cfg.Server.CORSOrigins))

	// Documentation and health endpoints (no auth required)
	docs.NewHandler().RegisterRoutes(app.router)
	health.NewHandler().RegisterRoutes(app.router)

	// Demo token endpoint (no auth required)
	authHandler := auth.NewHandler(cfg.Auth.DemoToken, slogLogger)
	authHandler.RegisterRoutes(app.router)

	// Repositories
	employeeRepo := employee.NewRepository(database, appMetrics)
	noteRepo := note.NewRepository(database, appMetrics)
	busRepo := busaccess.NewRepository(database, appMetrics)

	// NATS producer setup (optional; imports still work without it)
	natsProducer, err := messaging.NewProducer(cfg.NATS.URL, cfg.NATS.Subject, slogLogger)
	if err != nil {
		slogLogger.Warn("failed to initialize NATS producer", "error", err)
		natsProducer = nil
	}
	app.producer = natsProducer

	// Services
	employeeService := employee.NewService(employeeRepo, noteRepo, slogLogger)
	noteService := note.NewService(noteRepo, employeeRepo, slogLogger)

	var events busaccess.EventPublisher
	if natsProducer != nil {
		events = natsProducer
	}
	busService := busaccess.NewService(busRepo, employeeRepo, events, slogLogger)

	contractClient := document.NewContractClient(
		cfg.PDF.BaseURL,
		cfg.PDF.APIKey,
		cfg.PDF.TemplateID,
		time.Duration(cfg.PDF.TimeoutSeconds)*time.Second,
		slogLogger,
	)

	// Handlers
	employeeHandler := employee.NewHandler(employeeService, slogLogger, appMetrics)
	noteHandler := note.NewHandler(noteService, slogLogger, appMetrics)
	busHandler := busaccess.NewHandler(busService, slogLogger, appMetrics)
	documentHandler := document.NewHandler(employeeRepo, contractClient, slogLogger, appMetrics)

	// Protected routes group
	app.router.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware(cfg.Auth.DemoToken, slogLogger))
		employeeHandler.RegisterRoutes(r)
		noteHandler.RegisterRoutes(r)
		busHandler.RegisterRoutes(r)
		documentHandler.RegisterRoutes(r)
	})

	slogLogger.Info("application initialized successfully")

	return app
}

func (a *App) Run() error {
	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%s", a.config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  time.Duration(a.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(a.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(a.config.Server.IdleTimeout) * time.Second,
	}

	a.logger.Info("server starting", "port", a.config.Server.Port)
	return a.server.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down server")

	if a.producer != nil {
		a.producer.Close()
	}
	db.Close(a.database)

	return a.server.Shutdown(ctx)
}
