package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/isaacgw/parkrun-sync/internal/api"
)

// newServeCmd creates the 'serve' subcommand: the long-running mode
// with an HTTP surface and a periodic sync loop.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Runs the sync loop with an HTTP interface",
		Long: `Starts an HTTP server exposing health, metrics, and a manual
trigger endpoint, and runs a sync pass on a fixed interval. The gate
inside each pass decides whether any work actually happens, so the
interval can stay short without hammering anything.`,

		RunE: runServeCommand,
	}
}

func runServeCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	logger := appInstance.Logger
	cfg := appInstance.Config

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := api.NewServer(appInstance.Runner.Run, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	interval := time.Duration(cfg.Schedule.IntervalMinutes) * time.Minute
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("sync loop started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutdown initiated")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("server shutdown error", zap.Error(err))
			}
			logger.Info("shutdown complete")
			return nil
		case <-ticker.C:
			if err := server.Trigger(ctx, "schedule"); err != nil {
				logger.Error("Scheduled sync pass failed", zap.Error(err))
			}
		}
	}
}
