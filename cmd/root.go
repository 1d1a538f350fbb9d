package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jaimenoain/ceeq/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "ceeq",
	Short: "Deal pipeline backend for search funds",
	Long:  "Multi-tenant backend for sourcing acquisition targets, converting them into pipeline deals with cross-workspace collision protection, and serving searcher and investor workspaces.",
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
