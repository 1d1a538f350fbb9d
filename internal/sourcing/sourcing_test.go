package sourcing

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaimenoain/ceeq/internal/model"
	"github.com/jaimenoain/ceeq/internal/store"
)

func newTestService(t *testing.T, batchSize int) (*Service, *store.MemoryStore, string) {
	t.Helper()
	mem := store.NewMemory()
	ws := &model.Workspace{Type: model.WorkspaceSearcher, Name: "Alpha"}
	require.NoError(t, mem.CreateWorkspace(context.Background(), ws))
	return New(mem, batchSize), mem, ws.ID
}

var defaultMapping = Mapping{Name: "Company", Domain: "Website", Industry: "Sector"}

func TestImportCSV(t *testing.T) {
	t.Parallel()
	svc, mem, wsID := newTestService(t, 2)
	ctx := context.Background()

	file := strings.Join([]string{
		"Company,Website,Sector",
		"Acme Plumbing,https://www.acme.com/about,Plumbing",
		"Globex HVAC,globex.com,HVAC",
		"No Domain,,Landscaping",
		",missing-name.com,Landscaping",
		"Initech,initech.com?ref=list,Software",
	}, "\n")

	res, err := svc.ImportCSV(ctx, wsID, strings.NewReader(file), defaultMapping)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Inserted)
	assert.Equal(t, 2, res.Skipped)

	targets, total, err := mem.ListTargets(ctx, wsID, store.TargetFilter{Limit: 100})
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	byDomain := make(map[string]model.SourcingTarget)
	for _, tg := range targets {
		byDomain[tg.Domain] = tg
	}
	assert.Contains(t, byDomain, "acme.com")
	assert.Contains(t, byDomain, "initech.com")
	assert.Equal(t, "Plumbing", byDomain["acme.com"].Industry)
	assert.Equal(t, model.SourcingUntouched, byDomain["acme.com"].Status)
}

func TestImportCSV_DuplicateDomainsSkipped(t *testing.T) {
	t.Parallel()
	svc, _, wsID := newTestService(t, 10)
	ctx := context.Background()

	first := "Company,Website\nAcme,acme.com\n"
	res, err := svc.ImportCSV(ctx, wsID, strings.NewReader(first), Mapping{Name: "Company", Domain: "Website"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)

	// Re-import plus a variant URL that normalizes to the same domain.
	second := "Company,Website\nAcme,acme.com\nAcme Again,https://www.acme.com\nNew Co,new.com\n"
	res, err = svc.ImportCSV(ctx, wsID, strings.NewReader(second), Mapping{Name: "Company", Domain: "Website"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 2, res.Skipped)
}

func TestImportCSV_BatchesLargerThanBatchSize(t *testing.T) {
	t.Parallel()
	svc, _, wsID := newTestService(t, 2)

	var sb strings.Builder
	sb.WriteString("Company,Website\n")
	for _, d := range []string{"a.com", "b.com", "c.com", "d.com", "e.com"} {
		sb.WriteString("Co " + d + "," + d + "\n")
	}

	res, err := svc.ImportCSV(context.Background(), wsID, strings.NewReader(sb.String()), Mapping{Name: "Company", Domain: "Website"})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Inserted)
	assert.Zero(t, res.Skipped)
}

func TestImportCSV_MappingErrors(t *testing.T) {
	t.Parallel()
	svc, _, wsID := newTestService(t, 10)
	ctx := context.Background()

	_, err := svc.ImportCSV(ctx, wsID, strings.NewReader("a,b\n1,2\n"), Mapping{Name: "Company"})
	assert.ErrorIs(t, err, ErrMappingInvalid)

	_, err = svc.ImportCSV(ctx, wsID, strings.NewReader("Company,Site\nAcme,acme.com\n"), defaultMapping)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestImportCSV_ParsesFitScore(t *testing.T) {
	t.Parallel()
	svc, mem, wsID := newTestService(t, 10)
	ctx := context.Background()

	file := "Company,Website,Score\nAcme,acme.com,87.5\nGlobex,globex.com,not-a-number\n"
	res, err := svc.ImportCSV(ctx, wsID, strings.NewReader(file),
		Mapping{Name: "Company", Domain: "Website", FitScore: "Score"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)

	targets, _, err := mem.ListTargets(ctx, wsID, store.TargetFilter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, 87.5, targets[0].FitScore)
	assert.Zero(t, targets[1].FitScore)
}

func TestListUniverse(t *testing.T) {
	t.Parallel()
	svc, mem, wsID := newTestService(t, 10)
	ctx := context.Background()

	_, err := mem.BulkInsertTargets(ctx, wsID, []model.SourcingTarget{
		{Name: "High", Domain: "high.com", FitScore: 90, Industry: "HVAC"},
		{Name: "Mid", Domain: "mid.com", FitScore: 50, Industry: "Plumbing"},
		{Name: "Low", Domain: "low.com", FitScore: 10, Industry: "HVAC"},
	})
	require.NoError(t, err)

	page, err := svc.ListUniverse(ctx, wsID, store.TargetFilter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalCount)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 1, page.Page)
	require.Len(t, page.Rows, 2)
	assert.Equal(t, "High", page.Rows[0].Name)
	assert.NotEmpty(t, page.Rows[0].AddedAgo)

	filtered, err := svc.ListUniverse(ctx, wsID, store.TargetFilter{Industry: "HVAC", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, filtered.TotalCount)
}

func TestBulkStatus(t *testing.T) {
	t.Parallel()
	svc, mem, wsID := newTestService(t, 10)
	ctx := context.Background()

	_, err := mem.BulkInsertTargets(ctx, wsID, []model.SourcingTarget{
		{Name: "A", Domain: "a.com"},
		{Name: "B", Domain: "b.com"},
	})
	require.NoError(t, err)
	targets, _, err := mem.ListTargets(ctx, wsID, store.TargetFilter{Limit: 10})
	require.NoError(t, err)

	ids := []string{targets[0].ID, targets[1].ID, "missing"}
	updated, err := svc.BulkStatus(ctx, wsID, ids, model.SourcingInSequence)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)

	_, err = svc.BulkStatus(ctx, wsID, ids, model.SourcingStatus("bogus"))
	assert.ErrorIs(t, err, ErrInvalidStatus)

	updated, err = svc.BulkStatus(ctx, wsID, nil, model.SourcingReplied)
	require.NoError(t, err)
	assert.Zero(t, updated)
}
