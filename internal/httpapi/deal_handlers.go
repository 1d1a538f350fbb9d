package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jaimenoain/ceeq/internal/convert"
	"github.com/jaimenoain/ceeq/internal/kanban"
	"github.com/jaimenoain/ceeq/internal/model"
	"github.com/jaimenoain/ceeq/internal/pipeline"
	"github.com/jaimenoain/ceeq/internal/store"
)

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	targetID := chi.URLParam(r, "targetID")

	res, err := s.converter.Convert(r.Context(), sess.WorkspaceID, targetID)
	if err != nil {
		switch {
		case errors.Is(err, convert.ErrUnauthorized):
			writeError(w, http.StatusForbidden, "forbidden", "this workspace cannot convert targets")
		case errors.Is(err, convert.ErrTargetNotFound):
			writeError(w, http.StatusNotFound, "not_found", "target not found")
		case errors.Is(err, convert.ErrInvalidTarget):
			writeValidationError(w, "target has no usable domain", nil)
		case errors.Is(err, convert.ErrCollisionBlocked):
			// Fixed wording. The response must not hint at who holds the
			// conflicting deal.
			writeError(w, http.StatusConflict, "deal_conflict",
				"this company is already in an active process")
		case errors.Is(err, convert.ErrCollisionCheck):
			writeError(w, http.StatusServiceUnavailable, "conflict_check_unavailable",
				"conversion is temporarily unavailable, try again")
		default:
			s.serviceError(w, err, "convert target")
		}
		return
	}

	status := http.StatusCreated
	if res.Existing {
		status = http.StatusOK
	}
	writeJSON(w, status, map[string]any{
		"company":  res.Company,
		"deal":     res.Deal,
		"existing": res.Existing,
	})
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	board, err := s.pipeline.FetchBoard(r.Context(), sess.WorkspaceID)
	if err != nil {
		s.serviceError(w, err, "fetch board")
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// handleMoveDeal persists the stage change and returns the target
// column as the client's optimistic reducer would compute it, so the
// frontend can reconcile without a full refetch.
func (s *Server) handleMoveDeal(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	dealID := chi.URLParam(r, "dealID")

	var in struct {
		Stage model.DealStage `json:"stage"`
	}
	if err := decodeBody(r, &in); err != nil {
		writeValidationError(w, "invalid JSON body", nil)
		return
	}

	deals, err := s.store.ListActiveDeals(r.Context(), sess.WorkspaceID)
	if err != nil {
		s.serviceError(w, err, "move deal")
		return
	}

	deal, err := s.pipeline.MoveDeal(r.Context(), sess.WorkspaceID, dealID, in.Stage)
	if err != nil {
		s.pipelineError(w, err)
		return
	}

	projected := kanban.Apply(deals, kanban.Action{
		Type:        kanban.ActionMove,
		DealID:      dealID,
		TargetStage: in.Stage,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"deal":   deal,
		"column": kanban.Column(projected, in.Stage),
	})
}

func (s *Server) handleArchiveDeal(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	dealID := chi.URLParam(r, "dealID")

	var in struct {
		LossReason string `json:"loss_reason"`
	}
	if err := decodeBody(r, &in); err != nil {
		writeValidationError(w, "invalid JSON body", nil)
		return
	}

	deals, err := s.store.ListActiveDeals(r.Context(), sess.WorkspaceID)
	if err != nil {
		s.serviceError(w, err, "archive deal")
		return
	}

	deal, err := s.pipeline.ArchiveDeal(r.Context(), sess.WorkspaceID, dealID, in.LossReason)
	if err != nil {
		s.pipelineError(w, err)
		return
	}

	projected := kanban.Apply(deals, kanban.Action{
		Type:   kanban.ActionArchive,
		DealID: dealID,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"deal":      deal,
		"remaining": len(projected),
	})
}

func (s *Server) handleFinancials(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	dealID := chi.URLParam(r, "dealID")

	var in store.FinancialsUpdate
	if err := decodeBody(r, &in); err != nil {
		writeValidationError(w, "invalid JSON body", nil)
		return
	}

	deal, err := s.pipeline.UpdateFinancials(r.Context(), sess.WorkspaceID, dealID, in)
	if err != nil {
		s.pipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deal)
}

func (s *Server) handleFirmographics(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	companyID := chi.URLParam(r, "companyID")

	var in store.FirmographicsUpdate
	if err := decodeBody(r, &in); err != nil {
		writeValidationError(w, "invalid JSON body", nil)
		return
	}

	if err := s.store.UpdateCompanyFirmographics(r.Context(), sess.WorkspaceID, companyID, in); err != nil {
		writeError(w, http.StatusNotFound, "not_found", "company not found")
		return
	}
	company, err := s.store.GetCompany(r.Context(), sess.WorkspaceID, companyID)
	if err != nil {
		s.serviceError(w, err, "load company")
		return
	}
	writeJSON(w, http.StatusOK, company)
}

func (s *Server) handleSearcherDashboard(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	metrics, err := s.dashboard.SearcherMetrics(r.Context(), sess.WorkspaceID)
	if err != nil {
		s.serviceError(w, err, "searcher dashboard")
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

func (s *Server) handleInvestorFeed(w http.ResponseWriter, r *http.Request) {
	feed, err := s.dashboard.InvestorFeed(r.Context())
	if err != nil {
		s.serviceError(w, err, "investor feed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deals": feed})
}

func (s *Server) pipelineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pipeline.ErrDealNotFound):
		writeError(w, http.StatusNotFound, "not_found", "deal not found")
	case errors.Is(err, pipeline.ErrDealClosed):
		writeError(w, http.StatusConflict, "deal_closed", "deal is no longer active")
	case errors.Is(err, pipeline.ErrInvalidStage):
		writeValidationError(w, "unknown stage", nil)
	case errors.Is(err, pipeline.ErrLossReasonRequired):
		writeValidationError(w, "a loss reason is required at this stage", map[string]any{
			"loss_reasons": model.LossReasons,
		})
	default:
		s.serviceError(w, err, "pipeline")
	}
}
