// Package cli builds the cobra commands shared by the experiment programs.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/KyungWonPark/fhlearn/internal/config"
	"github.com/KyungWonPark/fhlearn/internal/exp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger returns a production logger, at debug level when verbose is set.
func NewLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// ExperimentCommand returns a command that loads the configuration and calls
// run with a Runner. Flags: --config, --verbose and --roi.
func ExperimentCommand(use, short string, run func(ctx context.Context, r *exp.Runner) error) *cobra.Command {
	var (
		configPath string
		verbose    bool
		rois       []string
		logger     *zap.Logger
	)

	cmd := &cobra.Command{
		Use:          use,
		Short:        short,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			logger, err = NewLogger(verbose)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := cfg.SelectROIs(rois); err != nil {
				return err
			}

			logger.Info("starting",
				zap.String("experiment", use),
				zap.String("data", cfg.DataDir),
				zap.String("result", cfg.ResultDir),
				zap.Int("rois", len(cfg.ROIs)),
			)
			return run(cmd.Context(), exp.NewRunner(cfg, logger))
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML configuration file (defaults when empty)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	cmd.Flags().StringSliceVar(&rois, "roi", nil, "run only these ROIs")

	return cmd
}

// Execute runs cmd with a context cancelled on interrupt and exits 1 on error.
func Execute(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
