package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/sales-etl/internal/pipeline"
	"github.com/sells-group/sales-etl/internal/reference"
)

var (
	runOrdersPath string
	runItemsPath  string
	runOutputDir  string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the full ETL pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if runOrdersPath != "" {
			cfg.ETL.OrdersPath = runOrdersPath
		}
		if runItemsPath != "" {
			cfg.ETL.ItemsPath = runItemsPath
		}
		if runOutputDir != "" {
			cfg.ETL.OutputDir = runOutputDir
		}

		if err := pipeline.EnsureOutputDir(cfg.ETL.OutputDir); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		loader := reference.NewLoader(httpOptions(cfg.HTTP))
		p := pipeline.New(cfg, st, loader)

		manifest, err := p.Run(ctx)
		if err != nil {
			return err
		}

		zap.L().Info("run finished",
			zap.String("run_id", manifest.RunID),
			zap.String("output_dir", cfg.ETL.OutputDir),
			zap.Int("cities", manifest.Outputs[pipeline.FileTopCities]),
			zap.Int("pairs", manifest.Outputs[pipeline.FileTopPairs]),
			zap.Int("margin_rows", manifest.Outputs[pipeline.FileMonthlyMargin]),
		)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runOrdersPath, "orders", "", "orders input file (default from config)")
	runCmd.Flags().StringVar(&runItemsPath, "items", "", "order items input file (default from config)")
	runCmd.Flags().StringVar(&runOutputDir, "output", "", "output directory (default from config)")
	rootCmd.AddCommand(runCmd)
}
