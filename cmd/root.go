package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/areascore/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "areascore",
	Short: "Composite area-quality scoring for property evaluation",
	Long:  "Scores a location by combining nearby amenities, crime statistics, state market heat, flood risk, and review sentiment into a single 0-1000 assessment.",
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
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
