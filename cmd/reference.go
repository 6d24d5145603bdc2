package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/sales-etl/internal/reference"
)

var referenceOutPath string

var referenceCmd = &cobra.Command{
	Use:   "reference",
	Short: "Fetch and validate the postal-code reference table",
	Long:  "Downloads every configured country archive, normalizes and deduplicates it, and optionally writes the unioned table to a CSV file. Useful for checking sources before a full run.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		loader := reference.NewLoader(httpOptions(cfg.HTTP))
		refs, err := loader.Load(ctx, cfg.Reference.Countries)
		if err != nil {
			return err
		}

		zap.L().Info("reference table loaded",
			zap.Int("countries", len(cfg.Reference.Countries)),
			zap.Int("rows", len(refs)),
		)

		if referenceOutPath == "" {
			return nil
		}
		data, err := csvutil.Marshal(refs)
		if err != nil {
			return eris.Wrap(err, "marshal reference table")
		}
		if err := os.WriteFile(referenceOutPath, data, 0o644); err != nil {
			return eris.Wrapf(err, "write %s", referenceOutPath)
		}
		zap.L().Info("reference table written", zap.String("path", referenceOutPath))
		return nil
	},
}

func init() {
	referenceCmd.Flags().StringVar(&referenceOutPath, "out", "", "write the unioned reference table to this CSV file")
	rootCmd.AddCommand(referenceCmd)
}
