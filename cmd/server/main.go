package main

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

	"github.com/joho/godotenv"

	"employee-dashboard/internal/app"
	"employee-dashboard/internal/apperror"
	"employee-dashboard/internal/config"
	"employee-dashboard/internal/db"
	"employee-dashboard/internal/httpapi"
	"employee-dashboard/internal/importer"
	"employee-dashboard/internal/logging"
	"employee-dashboard/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		slog.Error("server stopped", "error", err, "cause", apperror.Cause(err))
		os.Exit(1)
	}
}

// run owns every resource it opens, so all of them are released before it
// returns, on both the error and the shutdown paths.
func run(ctx context.Context) error {
	// -- Configs preload --
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	// -- Logger --
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	// -- Connect to DB --
	database, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("database connection error: %w", err)
	}
	defer func() {
		if err := db.Close(database); err != nil {
			logger.Warn("close database", "error", err)
		}
	}()

	employeeStore := store.NewEmployeeStore(database)
	if err := employeeStore.Initialize(ctx); err != nil {
		return fmt.Errorf("database initialization error: %w", err)
	}

	// -- Startup import --
	startup := &app.Startup{Logger: logger}
	if cfg.ImportEnabled {
		startup.Importer = importer.NewLoader(database, cfg.ImportPath, cfg.ImportBatchSize, logger)
	}
	startup.ImportOnce(ctx)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpapi.NewHandler(employeeStore, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		// -- Startup --
		logger.Info("starting server", "port", cfg.Port)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	return nil
}
