package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskboard/internal/config"
	"github.com/phrazzld/taskboard/internal/events"
	"github.com/phrazzld/taskboard/internal/lock"
	"github.com/phrazzld/taskboard/internal/platform/metrics"
	"github.com/phrazzld/taskboard/internal/platform/postgres"
	"github.com/phrazzld/taskboard/internal/realtime"
	"github.com/phrazzld/taskboard/internal/service"
	"github.com/phrazzld/taskboard/internal/service/auth"
	"github.com/phrazzld/taskboard/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// registry backs /metrics. It is private to the application so that
	// tests can build several applications in one process.
	registry *prometheus.Registry
	metrics  *metrics.Collectors

	userStore store.UserStore
	taskStore store.TaskStore

	jwtService       auth.JWTService
	passwordVerifier *auth.BcryptVerifier
	userService      service.UserService
	taskService      service.TaskService

	eventEmitter *events.InMemoryEventEmitter

	hub         *realtime.Hub
	coordinator *lock.Coordinator
	realtime    *realtime.Server
}

// newApplication creates a new application instance with all dependencies
// initialized. The database connection must already be established.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config:   cfg,
		logger:   logger,
		db:       db,
		registry: prometheus.NewRegistry(),
	}

	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.metrics = metrics.New(app.registry)

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes))

	app.passwordVerifier = auth.NewBcryptVerifier(cfg.Auth.BcryptCost)

	app.userStore = postgres.NewPostgresUserStore(db, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)

	// Real-time core: the hub delivers what the coordinator publishes.
	app.hub = realtime.NewHub(logger, app.metrics)
	app.coordinator = lock.NewCoordinator(app.hub, logger, lock.WithMetrics(app.metrics))
	app.userService = service.NewUserService(app.userStore, app.passwordVerifier, app.passwordVerifier, db, logger)

	app.realtime = realtime.NewServer(
		app.coordinator,
		app.hub,
		app.jwtService,
		app.userService,
		cfg.Realtime,
		cfg.Server.AllowedOrigins,
		logger,
	)

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	if cfg.Realtime.EmitCRUDEvents {
		app.eventEmitter.RegisterHandler(realtime.NewTaskEventBridge(app.coordinator, logger))
		logger.Info("REST task changes are forwarded to websocket clients")
	}

	app.taskService, err = service.NewTaskService(app.taskStore, db, app.eventEmitter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run serves HTTP and websocket traffic until ctx is cancelled or the
// listener fails, then shuts down gracefully.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", slog.String("error", err.Error()))
		}
	}

	app.logger.Info("Application shutdown completed")
}
