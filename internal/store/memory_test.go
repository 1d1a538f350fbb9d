package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaimenoain/ceeq/internal/model"
)

func seedWorkspace(t *testing.T, s *MemoryStore, wsType model.WorkspaceType, name string) *model.Workspace {
	t.Helper()
	ws := &model.Workspace{Type: wsType, Name: name}
	require.NoError(t, s.CreateWorkspace(context.Background(), ws))
	return ws
}

func TestMemoryStore_WorkspaceScoping(t *testing.T) {
	t.Parallel()
	s := NewMemory()
	ctx := context.Background()

	wsA := seedWorkspace(t, s, model.WorkspaceSearcher, "Alpha")
	wsB := seedWorkspace(t, s, model.WorkspaceSearcher, "Beta")

	_, err := s.BulkInsertTargets(ctx, wsA.ID, []model.SourcingTarget{
		{Name: "Acme", Domain: "acme.com"},
	})
	require.NoError(t, err)

	targets, total, err := s.ListTargets(ctx, wsA.ID, TargetFilter{})
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, 1, total)

	// The other workspace sees nothing, and a direct lookup by id from
	// the wrong workspace comes back empty rather than erroring.
	targets, total, err = s.ListTargets(ctx, wsB.ID, TargetFilter{})
	require.NoError(t, err)
	assert.Empty(t, targets)
	assert.Zero(t, total)

	tg, err := s.GetTarget(ctx, wsB.ID, targetsOf(t, s, ctx, wsA.ID)[0].ID)
	require.NoError(t, err)
	assert.Nil(t, tg)
}

func targetsOf(t *testing.T, s *MemoryStore, ctx context.Context, wsID string) []model.SourcingTarget {
	t.Helper()
	targets, _, err := s.ListTargets(ctx, wsID, TargetFilter{})
	require.NoError(t, err)
	return targets
}

func TestMemoryStore_BulkInsertTargets_SkipsDuplicateDomains(t *testing.T) {
	t.Parallel()
	s := NewMemory()
	ctx := context.Background()
	ws := seedWorkspace(t, s, model.WorkspaceSearcher, "Alpha")

	inserted, err := s.BulkInsertTargets(ctx, ws.ID, []model.SourcingTarget{
		{Name: "Acme", Domain: "acme.com"},
		{Name: "Globex", Domain: "globex.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), inserted)

	inserted, err = s.BulkInsertTargets(ctx, ws.ID, []model.SourcingTarget{
		{Name: "Acme Again", Domain: "acme.com"},
		{Name: "Initech", Domain: "initech.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), inserted)

	_, total, err := s.ListTargets(ctx, ws.ID, TargetFilter{Limit: 100})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestMemoryStore_ListTargets_PaginatesByFitScore(t *testing.T) {
	t.Parallel()
	s := NewMemory()
	ctx := context.Background()
	ws := seedWorkspace(t, s, model.WorkspaceSearcher, "Alpha")

	_, err := s.BulkInsertTargets(ctx, ws.ID, []model.SourcingTarget{
		{Name: "Low", Domain: "low.com", FitScore: 10},
		{Name: "High", Domain: "high.com", FitScore: 90},
		{Name: "Mid", Domain: "mid.com", FitScore: 50},
	})
	require.NoError(t, err)

	page1, total, err := s.ListTargets(ctx, ws.ID, TargetFilter{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page1, 2)
	assert.Equal(t, "High", page1[0].Name)
	assert.Equal(t, "Mid", page1[1].Name)

	page2, _, err := s.ListTargets(ctx, ws.ID, TargetFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, "Low", page2[0].Name)
}

func TestMemoryStore_CheckGlobalCollision_CrossWorkspace(t *testing.T) {
	t.Parallel()
	s := NewMemory()
	ctx := context.Background()

	wsA := seedWorkspace(t, s, model.WorkspaceSearcher, "Alpha")
	wsB := seedWorkspace(t, s, model.WorkspaceSearcher, "Beta")

	co := &model.Company{WorkspaceID: wsA.ID, Name: "Acme", Domain: "acme.com", Fingerprint: "fp-acme"}
	require.NoError(t, s.CreateCompany(ctx, co))
	require.NoError(t, s.CreateDeal(ctx, &model.Deal{
		WorkspaceID: wsA.ID,
		CompanyID:   co.ID,
		Stage:       model.StageLOIIssued,
	}))

	// The collision signal crosses workspace boundaries.
	sig, err := s.CheckGlobalCollision(ctx, "fp-acme")
	require.NoError(t, err)
	assert.True(t, sig.Collision)
	assert.Equal(t, model.StageLOIIssued, sig.Stage)

	sig, err = s.CheckGlobalCollision(ctx, "fp-unknown")
	require.NoError(t, err)
	assert.False(t, sig.Collision)

	// Archived deals do not collide.
	coB := &model.Company{WorkspaceID: wsB.ID, Name: "Globex", Domain: "globex.com", Fingerprint: "fp-globex"}
	require.NoError(t, s.CreateCompany(ctx, coB))
	dealB := &model.Deal{WorkspaceID: wsB.ID, CompanyID: coB.ID}
	require.NoError(t, s.CreateDeal(ctx, dealB))
	require.NoError(t, s.CloseDeal(ctx, wsB.ID, dealB.ID, model.DealArchived, ""))

	sig, err = s.CheckGlobalCollision(ctx, "fp-globex")
	require.NoError(t, err)
	assert.False(t, sig.Collision)
}

func TestMemoryStore_CheckGlobalCollision_ReportsFurthestStage(t *testing.T) {
	t.Parallel()
	s := NewMemory()
	ctx := context.Background()

	wsA := seedWorkspace(t, s, model.WorkspaceSearcher, "Alpha")
	wsB := seedWorkspace(t, s, model.WorkspaceSearcher, "Beta")

	for _, tc := range []struct {
		ws    *model.Workspace
		fp    string
		stage model.DealStage
	}{
		{wsA, "fp-shared", model.StageInbox},
		{wsB, "fp-shared", model.StageDueDiligence},
	} {
		co := &model.Company{WorkspaceID: tc.ws.ID, Name: "Same Co", Domain: "same.com", Fingerprint: tc.fp}
		require.NoError(t, s.CreateCompany(ctx, co))
		require.NoError(t, s.CreateDeal(ctx, &model.Deal{
			WorkspaceID: tc.ws.ID,
			CompanyID:   co.ID,
			Stage:       tc.stage,
		}))
	}

	sig, err := s.CheckGlobalCollision(ctx, "fp-shared")
	require.NoError(t, err)
	assert.True(t, sig.Collision)
	assert.Equal(t, model.StageDueDiligence, sig.Stage)
}

func TestMemoryStore_DealLifecycle(t *testing.T) {
	t.Parallel()
	s := NewMemory()
	ctx := context.Background()
	ws := seedWorkspace(t, s, model.WorkspaceSearcher, "Alpha")

	co := &model.Company{WorkspaceID: ws.ID, Name: "Acme", Domain: "acme.com", Fingerprint: "fp-1"}
	require.NoError(t, s.CreateCompany(ctx, co))

	deal := &model.Deal{WorkspaceID: ws.ID, CompanyID: co.ID}
	require.NoError(t, s.CreateDeal(ctx, deal))
	assert.Equal(t, model.StageInbox, deal.Stage)
	assert.Equal(t, model.DealActive, deal.Status)
	assert.Equal(t, model.VisibilityPrivate, deal.Visibility)

	// One deal per company per workspace.
	err := s.CreateDeal(ctx, &model.Deal{WorkspaceID: ws.ID, CompanyID: co.ID})
	require.Error(t, err)

	require.NoError(t, s.UpdateDealStage(ctx, ws.ID, deal.ID, model.StageNDASigned))
	got, err := s.GetDeal(ctx, ws.ID, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StageNDASigned, got.Stage)

	rev := int64(4_000_000)
	ebitda := int64(1_000_000)
	require.NoError(t, s.UpdateDealFinancials(ctx, ws.ID, deal.ID, FinancialsUpdate{Revenue: &rev, EBITDA: &ebitda}))
	got, err = s.GetDeal(ctx, ws.ID, deal.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Revenue)
	assert.Equal(t, rev, *got.Revenue)

	require.NoError(t, s.CloseDeal(ctx, ws.ID, deal.ID, model.DealLost, "valuation_gap"))
	deals, err := s.ListActiveDeals(ctx, ws.ID)
	require.NoError(t, err)
	assert.Empty(t, deals)
}

func TestMemoryStore_ListSharedDeals(t *testing.T) {
	t.Parallel()
	s := NewMemory()
	ctx := context.Background()
	ws := seedWorkspace(t, s, model.WorkspaceSearcher, "Alpha Search")

	coShared := &model.Company{WorkspaceID: ws.ID, Name: "Acme", Domain: "acme.com", Fingerprint: "fp-1"}
	require.NoError(t, s.CreateCompany(ctx, coShared))
	rev := int64(2_000_000)
	ebitda := int64(500_000)
	require.NoError(t, s.CreateDeal(ctx, &model.Deal{
		WorkspaceID: ws.ID,
		CompanyID:   coShared.ID,
		Visibility:  model.VisibilityShared,
		Revenue:     &rev,
		EBITDA:      &ebitda,
	}))

	coPrivate := &model.Company{WorkspaceID: ws.ID, Name: "Globex", Domain: "globex.com", Fingerprint: "fp-2"}
	require.NoError(t, s.CreateCompany(ctx, coPrivate))
	require.NoError(t, s.CreateDeal(ctx, &model.Deal{WorkspaceID: ws.ID, CompanyID: coPrivate.ID}))

	shared, err := s.ListSharedDeals(ctx)
	require.NoError(t, err)
	require.Len(t, shared, 1)
	assert.Equal(t, "Acme", shared[0].CompanyName)
	assert.Equal(t, "Alpha Search", shared[0].SearcherName)
	require.NotNil(t, shared[0].MarginPercent)
	assert.InDelta(t, 25.0, *shared[0].MarginPercent, 0.01)
}

func TestMemoryStore_DashboardCounts(t *testing.T) {
	t.Parallel()
	s := NewMemory()
	ctx := context.Background()
	ws := seedWorkspace(t, s, model.WorkspaceSearcher, "Alpha")

	_, err := s.BulkInsertTargets(ctx, ws.ID, []model.SourcingTarget{
		{Name: "A", Domain: "a.com"},
		{Name: "B", Domain: "b.com", Status: model.SourcingReplied},
		{Name: "C", Domain: "c.com", Status: model.SourcingInSequence},
	})
	require.NoError(t, err)

	for i, stage := range []model.DealStage{model.StageInbox, model.StageLOIIssued, model.StageClosedWon} {
		co := &model.Company{WorkspaceID: ws.ID, Name: "Co", Domain: "co.com", Fingerprint: string(rune('a' + i))}
		require.NoError(t, s.CreateCompany(ctx, co))
		require.NoError(t, s.CreateDeal(ctx, &model.Deal{WorkspaceID: ws.ID, CompanyID: co.ID, Stage: stage}))
	}

	total, err := s.CountTargets(ctx, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	engaged, err := s.CountEngagedTargets(ctx, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, engaged)

	active, err := s.CountActiveDeals(ctx, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, active)

	lois, err := s.CountDealsAtOrBeyond(ctx, ws.ID, model.StageLOIIssued)
	require.NoError(t, err)
	assert.Equal(t, 2, lois)
}

func TestMemoryStore_DeleteWorkspace_HidesIt(t *testing.T) {
	t.Parallel()
	s := NewMemory()
	ctx := context.Background()
	ws := seedWorkspace(t, s, model.WorkspaceInvestor, "Capital")

	require.NoError(t, s.DeleteWorkspace(ctx, ws.ID))
	got, err := s.GetWorkspace(ctx, ws.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
