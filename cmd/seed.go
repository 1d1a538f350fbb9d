package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jaimenoain/ceeq/internal/auth"
	"github.com/jaimenoain/ceeq/internal/model"
	"github.com/jaimenoain/ceeq/internal/session"
	"github.com/jaimenoain/ceeq/internal/store"
)

// seedCmd loads a small demo dataset: one searcher workspace with
// targets and deals, and one investor workspace that can see the shared
// deal.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo data for local development",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := newStore(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("init store: %w", err)
		}
		defer st.Close()

		// Use real fingerprints when the secret is configured so seeded
		// deals participate in collision checks.
		fp := "seed-pecan-valley"
		if hasher, err := newHasher(cfg); err == nil {
			fp = hasher.Hash("pecanvalleymfg.com")
		}

		if err := seed(cmd.Context(), st, fp); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		zap.L().Info("demo data loaded")
		return nil
	},
}

func seed(ctx context.Context, st store.Store, fp string) error {
	authSvc := auth.New(st, session.NewMemoryStore(0))

	searcher, err := authSvc.Register(ctx, auth.RegisterInput{
		WorkspaceName: "Bluebonnet Search",
		WorkspaceType: model.WorkspaceSearcher,
		Email:         "searcher@example.com",
		Password:      "demo-password-1",
		FirstName:     "Sam",
		LastName:      "Rivera",
	})
	if err != nil {
		return err
	}

	if _, err := authSvc.Register(ctx, auth.RegisterInput{
		WorkspaceName: "Lonestar Capital",
		WorkspaceType: model.WorkspaceInvestor,
		Email:         "investor@example.com",
		Password:      "demo-password-1",
		FirstName:     "Dana",
		LastName:      "Park",
	}); err != nil {
		return err
	}

	wsID := searcher.Workspace.ID
	if _, err := st.BulkInsertTargets(ctx, wsID, []model.SourcingTarget{
		{Name: "Hill Country HVAC", Domain: "hillcountryhvac.com", Industry: "HVAC", FitScore: 88},
		{Name: "Alamo Plumbing Co", Domain: "alamoplumbing.com", Industry: "Plumbing", FitScore: 74},
		{Name: "Gulf Coast Landscaping", Domain: "gulfcoastlandscape.com", Industry: "Landscaping", FitScore: 61, Status: model.SourcingInSequence},
		{Name: "Brazos Electric Services", Domain: "brazoselectric.com", Industry: "Electrical", FitScore: 55, Status: model.SourcingReplied},
	}); err != nil {
		return err
	}

	rev := int64(3_200_000)
	ebitda := int64(780_000)
	co := &model.Company{
		WorkspaceID: wsID,
		Name:        "Pecan Valley Manufacturing",
		Domain:      "pecanvalleymfg.com",
		Fingerprint: fp,
		Industry:    "Manufacturing",
	}
	if err := st.CreateCompany(ctx, co); err != nil {
		return err
	}
	return st.CreateDeal(ctx, &model.Deal{
		WorkspaceID: wsID,
		CompanyID:   co.ID,
		Stage:       model.StageCIMReview,
		Visibility:  model.VisibilityShared,
		Revenue:     &rev,
		EBITDA:      &ebitda,
	})
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
