package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/emissions-cli/internal/config"
	"github.com/sells-group/emissions-cli/internal/metrics"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "emissions-cli",
	Short: "Query EEA industrial emissions data and score retrofit leads",
	Long:  "Searches facilities and pollutant releases in the EEA E-PRTR database, ranks top emitters and scores facilities as emission-control sales leads.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if err := metrics.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
			zap.L().Warn("metrics flush failed", zap.Error(err))
		}
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
