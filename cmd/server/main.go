// Package main provides the entry point for the faultdesk HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"faultdesk/internal/config"
	"faultdesk/internal/di"
	"faultdesk/internal/observability"
	contextutils "faultdesk/internal/utils"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// Application owns the HTTP server and the service container
type Application struct {
	container di.ServiceContainerInterface
	server    *http.Server
	logger    *observability.Logger
}

// NewApplication creates a new application instance
func NewApplication(container di.ServiceContainerInterface, port string) *Application {
	return &Application{
		container: container,
		logger:    container.GetLogger(),
		server: &http.Server{
			Addr:              ":" + port,
			Handler:           container.Router(),
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}
}

// Run serves HTTP until ctx is cancelled or the listener fails
func (a *Application) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		return nil
	case err, ok := <-serverErr:
		if !ok {
			return nil
		}
		return contextutils.WrapError(err, "server failed")
	}
}

// Shutdown stops accepting requests, ends voice sessions and closes the stores
func (a *Application) Shutdown(ctx context.Context) error {
	// hijacked websocket connections are not tracked by http.Server
	a.container.VoiceManager().Shutdown()
	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Warn(ctx, "HTTP server did not shut down cleanly", map[string]interface{}{"error": err.Error()})
	}
	return a.container.Shutdown(ctx)
}

func main() {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	tp, mp, logger, err := observability.SetupObservability(&cfg.OpenTelemetry, "faultdesk")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize observability: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if tp != nil {
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.Warn(shutdownCtx, "Error shutting down tracer provider", map[string]interface{}{"error": err.Error()})
			}
		}
		if mp != nil {
			if err := mp.Shutdown(shutdownCtx); err != nil {
				logger.Warn(shutdownCtx, "Error shutting down meter provider", map[string]interface{}{"error": err.Error()})
			}
		}
		_ = logger.Sync()
	}()

	logger.Info(ctx, "Starting faultdesk", map[string]interface{}{
		"port":            cfg.Server.Port,
		"database_driver": cfg.Database.Driver,
		"fallback_driver": cfg.Fallback.Driver,
		"ai_enabled":      cfg.AI.Enabled,
		"voice_enabled":   cfg.Voice.Enabled,
	})

	container := di.NewServiceContainer(cfg, logger)
	if err := container.Initialize(ctx); err != nil {
		logger.Error(ctx, "Failed to initialize services", err)
		os.Exit(1)
	}

	if err := container.EnsureAdminUser(ctx); err != nil {
		logger.Error(ctx, "Failed to ensure admin user exists", err, map[string]interface{}{"admin_username": cfg.Server.AdminUsername})
		os.Exit(1)
	}

	app := NewApplication(container, cfg.Server.Port)
	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "Application failed", err)
		_ = container.Shutdown(context.Background())
		os.Exit(1)
	}
	logger.Info(context.Background(), "Received shutdown signal, shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "Error during application shutdown", err)
		return
	}
	logger.Info(shutdownCtx, "Shutdown completed successfully")
}
