package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eshaffer321/order-reconciler/internal/application/service"
	"github.com/eshaffer321/order-reconciler/internal/infrastructure/storage"
)

type runOptions struct {
	orders            string
	ledger            string
	dryRun            bool
	excludeReconciled bool
	threshold         float64
	format            string
}

func newRunCommand(global *globalOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Reconcile an order export against a ledger export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.format != "text" && opts.format != "json" {
				return fmt.Errorf("unknown format %q (want text or json)", opts.format)
			}

			cfg, err := global.loadConfig()
			if err != nil {
				return err
			}
			logger := global.logger(cmd.ErrOrStderr(), cfg, "run")

			matcherCfg := cfg.ToMatcherConfig()
			if cmd.Flags().Changed("threshold") {
				matcherCfg.MatchThreshold = opts.threshold
			}

			var store storage.Repository
			if !opts.dryRun || opts.excludeReconciled {
				s, err := storage.NewStorageWithLogger(cfg.Storage.DatabasePath, logger)
				if err != nil {
					return fmt.Errorf("failed to open storage: %w", err)
				}
				defer func() { _ = s.Close() }()
				store = s
			}

			svc := service.NewReconcileService(matcherCfg, store, logger)
			out, err := svc.Run(cmd.Context(), service.Request{
				OrdersPath:        opts.orders,
				LedgerPath:        opts.ledger,
				DryRun:            opts.dryRun,
				ExcludeReconciled: opts.excludeReconciled,
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if opts.format == "json" {
				return PrintJSON(w, out)
			}
			PrintHeader(w, opts.dryRun)
			return PrintRunResult(w, out)
		},
	}

	cmd.Flags().StringVar(&opts.orders, "orders", "", "Order export (.json, .csv or .xlsx)")
	cmd.Flags().StringVar(&opts.ledger, "ledger", "", "Ledger export (.json or .csv)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Reconcile without recording the run")
	cmd.Flags().BoolVar(&opts.excludeReconciled, "exclude-reconciled", false, "Skip records matched by earlier runs")
	cmd.Flags().Float64Var(&opts.threshold, "threshold", 60, "Minimum confidence for a match (0-100)")
	cmd.Flags().StringVar(&opts.format, "format", "text", "Output format: text or json")
	_ = cmd.MarkFlagRequired("orders")
	_ = cmd.MarkFlagRequired("ledger")

	return cmd
}
