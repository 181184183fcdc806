package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/bulkinvite/internal/inviter/http"
	"github.com/aussiebroadwan/bulkinvite/internal/inviter/progress"
	"github.com/aussiebroadwan/bulkinvite/internal/inviter/service"
	"github.com/aussiebroadwan/bulkinvite/internal/inviter/staging"
	"github.com/aussiebroadwan/bulkinvite/internal/inviter/store"
	"github.com/aussiebroadwan/bulkinvite/internal/inviter/store/drivers/sqlite"
	"github.com/aussiebroadwan/bulkinvite/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the inviter service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db     store.Store
	stager *staging.Stager
	sink   *progress.Sink

	// Services
	runner              *service.Runner
	housekeepingService *service.HousekeepingService
	housekeepingRunning bool

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "inviter",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initJobs(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initHTTP()

	return app, nil
}

// Handler exposes the router, mainly for tests.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	// Start housekeeping service
	app.housekeepingService.Start()
	app.housekeepingRunning = true

	app.logger.Info("inviter service starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown stops accepting requests, cancels the running job and waits for
// it to record its final state, then closes the store.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down inviter service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Stop the running job, if any
	if err := app.runner.Shutdown(ctx); err != nil {
		app.logger.Error("running job did not stop in time", "error", err)
	}

	// Stop the housekeeping service
	if app.housekeepingRunning {
		app.housekeepingService.Stop()
		app.housekeepingRunning = false
	}

	if err := app.sink.Close(); err != nil {
		app.logger.Error("error closing progress file", "error", err)
	}

	// Close database connection
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("inviter service stopped")
	return nil
}

// initDatabase opens the job store, applies migrations and fails every job
// a previous process left unfinished.
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}
	app.logger.Info("database migrations applied successfully")

	n, err := db.Jobs().MarkAbandoned(context.Background(), time.Now().UTC())
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to close out abandoned jobs: %w", err)
	}
	if n > 0 {
		app.logger.Warn("marked jobs from a previous run as failed", "count", n)
	}

	return nil
}

// initJobs wires staging, the progress log, the engine and the runner.
func (app *Application) initJobs() error {
	stager, err := staging.New(app.cfg.StagingDir, app.cfg.MaxUploadBytes)
	if err != nil {
		return fmt.Errorf("failed to initialize staging: %w", err)
	}
	app.stager = stager

	if app.cfg.ProgressFile != "" {
		sink, err := progress.NewMirroredSink(app.cfg.ProgressFile)
		if err != nil {
			return fmt.Errorf("failed to open progress file: %w", err)
		}
		app.sink = sink
	} else {
		app.sink = progress.NewSink()
	}

	engine := &service.Engine{
		NewDirectory: service.DirectoryFactory(app.cfg.DirectoryScheme, app.cfg.DirectoryTimeout),
	}
	app.runner = service.NewRunner(engine, app.sink, app.db.Jobs(), app.logger)
	if slogx.ParseLevel(app.cfg.LogLevel) == slog.LevelDebug {
		app.runner.ProgressLevel = slog.LevelDebug
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db.Jobs(),
		app.stager,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.JobRetention,
	)

	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		BuildVersion,
		app.db,
		app.runner,
		app.stager,
		app.logger,
	)
	router.Defaults = app.cfg.JobDefaults()
	router.MaxUploadBytes = 0
	if app.cfg.MaxUploadBytes > 0 {
		router.MaxUploadBytes = app.cfg.MaxUploadBytes + httpapi.MultipartOverhead
	}
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
