package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := newStore(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("init store: %w", err)
		}
		defer st.Close()

		if err := st.Migrate(cmd.Context()); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		zap.L().Info("migration applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
