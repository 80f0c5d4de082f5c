package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/eshaffer321/order-reconciler/internal/api"
	"github.com/eshaffer321/order-reconciler/internal/application/service"
	"github.com/eshaffer321/order-reconciler/internal/infrastructure/logging"
	"github.com/eshaffer321/order-reconciler/internal/infrastructure/storage"
)

func newServeCommand(global *globalOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := global.loadConfig()
			if err != nil {
				return err
			}
			loggingCfg := cfg.Observability.Logging
			if global.verbose {
				loggingCfg.Level = "debug"
			}
			logger := logging.NewLoggerWithSystem(loggingCfg, "api")

			store, err := storage.NewStorageWithLogger(cfg.Storage.DatabasePath, logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			apiCfg := api.DefaultConfig()
			apiCfg.Port = cfg.API.Port
			if cmd.Flags().Changed("port") {
				apiCfg.Port = port
			}

			svc := service.NewReconcileService(cfg.ToMatcherConfig(), store, logger)
			server := api.NewServer(apiCfg, svc, store, logger)

			// Handle graceful shutdown
			done := make(chan struct{})
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(quit)

			go func() {
				<-quit
				logger.Info("received shutdown signal")

				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := server.Shutdown(ctx); err != nil {
					logger.Error("server shutdown error", slog.Any("error", err))
				}
				close(done)
			}()

			// Start server (blocks until shutdown)
			if err := server.Start(); err != nil {
				return err
			}

			<-done
			logger.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 8085, "Port to listen on (default from config)")
	return cmd
}
