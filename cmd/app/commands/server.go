package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/allisson/occam/internal/app"
	"github.com/allisson/occam/internal/config"
	reportUseCase "github.com/allisson/occam/internal/report/usecase"
)

// RunServer starts the HTTP server and the background compliance workers:
// the re-verification processor, the report scheduler and, when enabled, the
// cron-driven scheduled audit. Blocks until SIGINT/SIGTERM or a fatal error,
// then stops the servers within DBConnMaxLifetime and waits for the workers.
func RunServer(ctx context.Context, version string) error {
	cfg := config.Load()

	gin.SetMode(cfg.GetGinMode())

	container := app.NewContainer(cfg)

	logger := container.Logger()
	logger.Info("starting server", slog.String("version", version))

	defer closeContainer(container, logger)

	// Initializes every dependency of the API
	server, err := container.HTTPServer()
	if err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	metricsServer, err := container.MetricsServer()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics server: %w", err)
	}

	reverification, err := container.ReverificationUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize reverification: %w", err)
	}

	reports, err := container.ReportUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize reports: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	workersCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()
	workers, workersCtx := errgroup.WithContext(workersCtx)

	workers.Go(func() error {
		return reverification.Start(workersCtx)
	})
	workers.Go(func() error {
		return reportUseCase.Schedule(workersCtx, reports, cfg.ReportInterval, logger)
	})

	if cfg.ScheduledAuditEnabled {
		scheduler, err := container.ScheduledAuditScheduler()
		if err != nil {
			return fmt.Errorf("failed to initialize scheduled audit: %w", err)
		}
		workers.Go(func() error {
			return scheduler.Start(workersCtx)
		})
	}

	serverErr := make(chan error, 2)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErr <- fmt.Errorf("api server error: %w", err)
		}
	}()

	if metricsServer != nil {
		go func() {
			if err := metricsServer.Start(ctx); err != nil {
				serverErr <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	var shutdownErrors []error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		logger.Error("server error, initiating shutdown", slog.Any("error", err))
		shutdownErrors = append(shutdownErrors, err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.DBConnMaxLifetime)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		shutdownErrors = append(shutdownErrors, fmt.Errorf("api server shutdown: %w", err))
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	stopWorkers()
	if err := workers.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		shutdownErrors = append(shutdownErrors, fmt.Errorf("background worker: %w", err))
	}
	logger.Info("background workers stopped")

	return errors.Join(shutdownErrors...)
}
