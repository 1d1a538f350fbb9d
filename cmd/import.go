package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jaimenoain/ceeq/internal/sourcing"
)

var (
	importWorkspaceID string
	importNameCol     string
	importDomainCol   string
	importIndustryCol string
	importScoreCol    string
)

var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import a target list CSV into a workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := newStore(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("init store: %w", err)
		}
		defer st.Close()

		ws, err := st.GetWorkspace(cmd.Context(), importWorkspaceID)
		if err != nil {
			return fmt.Errorf("load workspace: %w", err)
		}
		if ws == nil {
			return fmt.Errorf("workspace %s not found", importWorkspaceID)
		}

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open file: %w", err)
		}
		defer f.Close()

		svc := sourcing.New(st, cfg.Sourcing.BatchSize)
		result, err := svc.ImportCSV(cmd.Context(), importWorkspaceID, f, sourcing.Mapping{
			Name:     importNameCol,
			Domain:   importDomainCol,
			Industry: importIndustryCol,
			FitScore: importScoreCol,
		})
		if err != nil {
			return fmt.Errorf("import: %w", err)
		}

		zap.L().Info("import finished",
			zap.String("workspace_id", importWorkspaceID),
			zap.Int("inserted", result.Inserted),
			zap.Int("skipped", result.Skipped))
		fmt.Printf("inserted %d, skipped %d\n", result.Inserted, result.Skipped)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importWorkspaceID, "workspace", "", "workspace id to import into (required)")
	importCmd.Flags().StringVar(&importNameCol, "name-col", "name", "CSV column holding the company name")
	importCmd.Flags().StringVar(&importDomainCol, "domain-col", "domain", "CSV column holding the website or domain")
	importCmd.Flags().StringVar(&importIndustryCol, "industry-col", "", "CSV column holding the industry (optional)")
	importCmd.Flags().StringVar(&importScoreCol, "score-col", "", "CSV column holding the fit score (optional)")
	_ = importCmd.MarkFlagRequired("workspace")
	rootCmd.AddCommand(importCmd)
}
