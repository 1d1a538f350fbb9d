// Package dashboard aggregates workspace metrics for the searcher home
// screen and the investor deal feed.
package dashboard

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/jaimenoain/ceeq/internal/model"
	"github.com/jaimenoain/ceeq/internal/store"
)

const recentDealLimit = 5

type Service struct {
	store store.Store
}

func New(st store.Store) *Service {
	return &Service{store: st}
}

// SearcherMetrics gathers the dashboard counts concurrently. One slow
// count delays the response, it does not serialize the rest.
func (s *Service) SearcherMetrics(ctx context.Context, workspaceID string) (*model.DashboardMetrics, error) {
	var metrics model.DashboardMetrics

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.store.CountTargets(gctx, workspaceID)
		metrics.TotalSourced = n
		return err
	})
	g.Go(func() error {
		n, err := s.store.CountEngagedTargets(gctx, workspaceID)
		metrics.TotalEngaged = n
		return err
	})
	g.Go(func() error {
		n, err := s.store.CountActiveDeals(gctx, workspaceID)
		metrics.ActiveDeals = n
		return err
	})
	g.Go(func() error {
		n, err := s.store.CountDealsAtOrBeyond(gctx, workspaceID, model.StageLOIIssued)
		metrics.LOIsIssued = n
		return err
	})
	g.Go(func() error {
		deals, err := s.store.RecentDeals(gctx, workspaceID, recentDealLimit)
		metrics.RecentDeals = deals
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "dashboard: collect metrics")
	}
	if metrics.RecentDeals == nil {
		metrics.RecentDeals = []model.KanbanDeal{}
	}
	return &metrics, nil
}

// InvestorFeed returns all shared deals across searcher workspaces.
func (s *Service) InvestorFeed(ctx context.Context) ([]model.SharedDeal, error) {
	deals, err := s.store.ListSharedDeals(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "dashboard: investor feed")
	}
	if deals == nil {
		deals = []model.SharedDeal{}
	}
	return deals, nil
}
