package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eshaffer321/order-reconciler/internal/application/service"
	"github.com/eshaffer321/order-reconciler/internal/infrastructure/storage"
)

func newRunsCommand(global *globalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List recorded runs, or show one run with its matches",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}

			cfg, err := global.loadConfig()
			if err != nil {
				return err
			}
			logger := global.logger(cmd.ErrOrStderr(), cfg, "runs")

			store, err := storage.NewStorageWithLogger(cfg.Storage.DatabasePath, logger)
			if err != nil {
				return fmt.Errorf("failed to open storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			svc := service.NewReconcileService(cfg.ToMatcherConfig(), store, logger)
			w := cmd.OutOrStdout()

			if len(args) == 1 {
				detail, err := svc.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				PrintRunDetail(w, detail)
				return nil
			}

			runs, err := svc.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			PrintRuns(w, runs)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", storage.DefaultListLimit, "Maximum runs to list")
	return cmd
}
