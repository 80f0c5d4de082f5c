// Package cli implements the reconcile command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/eshaffer321/order-reconciler/internal/infrastructure/config"
	"github.com/eshaffer321/order-reconciler/internal/infrastructure/logging"
)

// globalOptions are the persistent flags shared by every command
type globalOptions struct {
	configPath string
	verbose    bool
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "reconcile",
		Short: "Match merchant orders against bank ledger entries",
		Long: `reconcile pairs merchant orders with the bank ledger entries that paid for
them, including orders split across several charges and charges that cover
several orders. Runs are recorded in a local SQLite database.

Example Usage:
  reconcile run --orders orders.json --ledger ledger.csv --dry-run
  reconcile runs --limit 5
  reconcile serve --port 8085`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config file (default: config.yaml, then environment)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output")

	root.AddCommand(
		newRunCommand(opts),
		newRunsCommand(opts),
		newServeCommand(opts),
		newVersionCommand(),
	)
	return root
}

// Execute runs the CLI and exits non-zero on error.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads --config when given; otherwise config.yaml or the environment.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	if o.configPath != "" {
		cfg, err := config.Load(o.configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		return cfg, nil
	}
	cfg := config.LoadOrEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// logger writes to w (stderr for commands) so stdout stays clean for --format json
func (o *globalOptions) logger(w io.Writer, cfg *config.Config, system string) *slog.Logger {
	loggingCfg := cfg.Observability.Logging
	if o.verbose {
		loggingCfg.Level = "debug"
	}
	return logging.NewLoggerTo(w, loggingCfg).With("system", system)
}
