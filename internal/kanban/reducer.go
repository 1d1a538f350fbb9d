// Package kanban provides the pure optimistic-update reducer for the
// pipeline board. The HTTP layer applies confirmed mutations through it;
// clients layer the same transitions over a server-confirmed list while
// round-trips resolve.
package kanban

import "github.com/jaimenoain/ceeq/internal/model"

// ActionType enumerates board transitions.
type ActionType string

const (
	ActionMove          ActionType = "move"
	ActionRevertMove    ActionType = "revert_move"
	ActionArchive       ActionType = "archive"
	ActionRevertArchive ActionType = "revert_archive"
)

// Action is a single board transition.
type Action struct {
	Type ActionType

	// DealID targets move, revert_move and archive.
	DealID string

	// TargetStage is the destination for move; PreviousStage restores a
	// failed move.
	TargetStage   model.DealStage
	PreviousStage model.DealStage

	// Deal is the card to reinsert for revert_archive.
	Deal model.KanbanDeal
}

// Apply returns the board list after the action. The input slice is never
// mutated; when anything changes the result is a fresh slice.
func Apply(deals []model.KanbanDeal, action Action) []model.KanbanDeal {
	switch action.Type {
	case ActionMove:
		if !action.TargetStage.Valid() {
			return deals
		}
		return setStage(deals, action.DealID, action.TargetStage)

	case ActionRevertMove:
		if !action.PreviousStage.Valid() {
			return deals
		}
		return setStage(deals, action.DealID, action.PreviousStage)

	case ActionArchive:
		out := make([]model.KanbanDeal, 0, len(deals))
		for _, d := range deals {
			if d.ID != action.DealID {
				out = append(out, d)
			}
		}
		return out

	case ActionRevertArchive:
		for _, d := range deals {
			if d.ID == action.Deal.ID {
				return deals
			}
		}
		out := make([]model.KanbanDeal, 0, len(deals)+1)
		out = append(out, deals...)
		return append(out, action.Deal)

	default:
		return deals
	}
}

func setStage(deals []model.KanbanDeal, dealID string, stage model.DealStage) []model.KanbanDeal {
	out := make([]model.KanbanDeal, len(deals))
	for i, d := range deals {
		if d.ID == dealID {
			d.Stage = stage
		}
		out[i] = d
	}
	return out
}

// Column filters the flat list down to a single stage, preserving order.
func Column(deals []model.KanbanDeal, stage model.DealStage) []model.KanbanDeal {
	col := []model.KanbanDeal{}
	for _, d := range deals {
		if d.Stage == stage {
			col = append(col, d)
		}
	}
	return col
}
