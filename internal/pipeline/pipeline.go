// Package pipeline manages the deal board: fetching columns, moving
// deals between stages, and archiving with loss-reason validation.
package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/jaimenoain/ceeq/internal/model"
	"github.com/jaimenoain/ceeq/internal/store"
)

var (
	ErrDealNotFound = eris.New("pipeline: deal not found")
	ErrDealClosed   = eris.New("pipeline: deal is no longer active")
	ErrInvalidStage = eris.New("pipeline: unknown stage")

	// ErrLossReasonRequired fires when archiving a deal at or beyond the
	// stage where an explanation is mandatory.
	ErrLossReasonRequired = eris.New("pipeline: loss reason required for deals at cim_review or later")
)

type Service struct {
	store store.Store
}

func New(st store.Store) *Service {
	return &Service{store: st}
}

// FetchBoard groups the workspace's active deals into stage columns.
// Every stage is present in the result, empty or not.
func (s *Service) FetchBoard(ctx context.Context, workspaceID string) (*model.Board, error) {
	deals, err := s.store.ListActiveDeals(ctx, workspaceID)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: list deals")
	}

	board := model.NewBoard()
	for _, d := range deals {
		if !d.Stage.Valid() {
			zap.L().Warn("deal with unknown stage skipped",
				zap.String("deal_id", d.ID),
				zap.String("stage", string(d.Stage)))
			continue
		}
		board.Columns[d.Stage] = append(board.Columns[d.Stage], d)
	}
	return &board, nil
}

// MoveDeal sets the deal's stage and returns the updated deal.
func (s *Service) MoveDeal(ctx context.Context, workspaceID, dealID string, stage model.DealStage) (*model.Deal, error) {
	if !stage.Valid() {
		return nil, ErrInvalidStage
	}

	deal, err := s.store.GetDeal(ctx, workspaceID, dealID)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load deal")
	}
	if deal == nil {
		return nil, ErrDealNotFound
	}
	if deal.Status != model.DealActive {
		return nil, ErrDealClosed
	}

	if deal.Stage == stage {
		return deal, nil
	}
	if err := s.store.UpdateDealStage(ctx, workspaceID, dealID, stage); err != nil {
		return nil, eris.Wrap(err, "pipeline: update stage")
	}
	deal.Stage = stage
	return deal, nil
}

// ArchiveDeal removes the deal from the active board. A supplied loss
// reason always marks the deal lost. The current stage is read
// server-side: at or beyond cim_review a reason is mandatory; earlier
// deals may archive without one.
func (s *Service) ArchiveDeal(ctx context.Context, workspaceID, dealID, lossReason string) (*model.Deal, error) {
	deal, err := s.store.GetDeal(ctx, workspaceID, dealID)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load deal")
	}
	if deal == nil {
		return nil, ErrDealNotFound
	}
	if deal.Status != model.DealActive {
		return nil, ErrDealClosed
	}

	if lossReason == "" && deal.Stage.AtLeast(model.StageLossReasonThreshold) {
		return nil, ErrLossReasonRequired
	}
	status := model.DealArchived
	if lossReason != "" {
		status = model.DealLost
	}

	if err := s.store.CloseDeal(ctx, workspaceID, dealID, status, lossReason); err != nil {
		return nil, eris.Wrap(err, "pipeline: close deal")
	}
	deal.Status = status
	deal.LossReason = lossReason
	return deal, nil
}

// UpdateFinancials patches asking price, revenue, or EBITDA on a deal.
func (s *Service) UpdateFinancials(ctx context.Context, workspaceID, dealID string, upd store.FinancialsUpdate) (*model.Deal, error) {
	deal, err := s.store.GetDeal(ctx, workspaceID, dealID)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load deal")
	}
	if deal == nil {
		return nil, ErrDealNotFound
	}

	if err := s.store.UpdateDealFinancials(ctx, workspaceID, dealID, upd); err != nil {
		return nil, eris.Wrap(err, "pipeline: update financials")
	}
	return s.store.GetDeal(ctx, workspaceID, dealID)
}
