package kanban

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaimenoain/ceeq/internal/model"
)

func board() []model.KanbanDeal {
	return []model.KanbanDeal{
		{ID: "d1", CompanyName: "Acme Logistics", Stage: model.StageInbox},
		{ID: "d2", CompanyName: "Delta Industries", Stage: model.StageNDASigned},
		{ID: "d3", CompanyName: "Alpha Mfg", Stage: model.StageCIMReview},
	}
}

func TestApplyMove(t *testing.T) {
	t.Parallel()

	in := board()
	out := Apply(in, Action{Type: ActionMove, DealID: "d1", TargetStage: model.StageNDASigned})

	require.Len(t, out, 3)
	assert.Equal(t, model.StageNDASigned, out[0].Stage)
	// Only the targeted deal changes.
	assert.Equal(t, in[1], out[1])
	assert.Equal(t, in[2], out[2])
	// Input untouched.
	assert.Equal(t, model.StageInbox, in[0].Stage)
}

func TestApplyMoveInvalidStageIsNoop(t *testing.T) {
	t.Parallel()

	in := board()
	out := Apply(in, Action{Type: ActionMove, DealID: "d1", TargetStage: "negotiation"})
	assert.Equal(t, in, out)
}

func TestApplyRevertMove(t *testing.T) {
	t.Parallel()

	in := board()
	moved := Apply(in, Action{Type: ActionMove, DealID: "d2", TargetStage: model.StageLOIIssued})
	reverted := Apply(moved, Action{Type: ActionRevertMove, DealID: "d2", PreviousStage: model.StageNDASigned})

	assert.Equal(t, in, reverted)
}

func TestApplyArchive(t *testing.T) {
	t.Parallel()

	in := board()
	out := Apply(in, Action{Type: ActionArchive, DealID: "d2"})

	require.Len(t, out, 2)
	assert.Equal(t, "d1", out[0].ID)
	assert.Equal(t, "d3", out[1].ID)
	assert.Len(t, in, 3)
}

func TestApplyRevertArchive(t *testing.T) {
	t.Parallel()

	in := board()
	archived := Apply(in, Action{Type: ActionArchive, DealID: "d3"})
	card := model.KanbanDeal{ID: "d3", CompanyName: "Alpha Mfg", Stage: model.StageCIMReview}

	restored := Apply(archived, Action{Type: ActionRevertArchive, Deal: card})
	require.Len(t, restored, 3)
	assert.Equal(t, "d3", restored[2].ID)

	// Reinserting a card that is already present is a no-op.
	again := Apply(restored, Action{Type: ActionRevertArchive, Deal: card})
	assert.Equal(t, restored, again)
}

func TestApplyUnknownActionReturnsInput(t *testing.T) {
	t.Parallel()

	in := board()
	out := Apply(in, Action{Type: "shuffle"})
	assert.Equal(t, in, out)
}

func TestApplyNeverMutatesInput(t *testing.T) {
	t.Parallel()

	in := board()
	snapshot := board()

	_ = Apply(in, Action{Type: ActionMove, DealID: "d1", TargetStage: model.StageClosedWon})
	_ = Apply(in, Action{Type: ActionArchive, DealID: "d1"})
	_ = Apply(in, Action{Type: ActionRevertArchive, Deal: model.KanbanDeal{ID: "d9"}})

	assert.Equal(t, snapshot, in)
}

func TestColumn(t *testing.T) {
	t.Parallel()

	col := Column(board(), model.StageNDASigned)
	require.Len(t, col, 1)
	assert.Equal(t, "d2", col[0].ID)

	assert.Empty(t, Column(board(), model.StageClosedWon))
}
