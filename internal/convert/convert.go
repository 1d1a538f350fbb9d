// Package convert promotes sourcing targets into pipeline deals.
//
// Conversion is fail-closed: when the global collision check cannot be
// completed the conversion is refused rather than risking a duplicate
// engagement. Collision refusals carry a fixed message and never expose
// which workspace holds the conflicting deal.
package convert

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/jaimenoain/ceeq/internal/fingerprint"
	"github.com/jaimenoain/ceeq/internal/model"
	"github.com/jaimenoain/ceeq/internal/store"
)

var (
	// ErrUnauthorized means the caller's workspace cannot convert targets.
	ErrUnauthorized = eris.New("convert: workspace cannot convert targets")

	// ErrTargetNotFound means no such target is visible to the workspace.
	ErrTargetNotFound = eris.New("convert: target not found")

	// ErrInvalidTarget means the target is missing the data conversion needs.
	ErrInvalidTarget = eris.New("convert: target has no usable domain")

	// ErrCollisionBlocked means another workspace holds an advanced active
	// deal on the same company. The message is deliberately generic.
	ErrCollisionBlocked = eris.New("convert: this company is already in an active process")

	// ErrCollisionCheck means the global collision check did not complete.
	ErrCollisionCheck = eris.New("convert: collision check unavailable, conversion refused")
)

// Result reports the company and deal a conversion resolved to. Existing
// is true when an earlier conversion already created the deal.
type Result struct {
	Company  *model.Company
	Deal     *model.Deal
	Existing bool
}

// Converter turns sourcing targets into companies with active deals.
type Converter struct {
	store  store.Store
	hasher *fingerprint.Hasher
}

func New(st store.Store, hasher *fingerprint.Hasher) *Converter {
	return &Converter{store: st, hasher: hasher}
}

// Convert promotes the target into a company and an inbox deal.
func (c *Converter) Convert(ctx context.Context, workspaceID, targetID string) (*Result, error) {
	ws, err := c.store.GetWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, eris.Wrap(err, "convert: load workspace")
	}
	if ws == nil || ws.Type != model.WorkspaceSearcher {
		return nil, ErrUnauthorized
	}

	target, err := c.store.GetTarget(ctx, workspaceID, targetID)
	if err != nil {
		return nil, eris.Wrap(err, "convert: load target")
	}
	if target == nil {
		return nil, ErrTargetNotFound
	}

	normalized := fingerprint.Normalize(target.Domain)
	if normalized == "" || target.Name == "" {
		return nil, ErrInvalidTarget
	}
	fp := c.hasher.Hash(normalized)

	// A company already carrying this fingerprint in the workspace means
	// the target was converted before. Reuse it rather than erroring.
	company, err := c.store.GetCompanyByFingerprint(ctx, workspaceID, fp)
	if err != nil {
		return nil, eris.Wrap(err, "convert: check existing company")
	}
	if company != nil {
		return c.resolveExisting(ctx, workspaceID, targetID, company)
	}

	// The collision check runs before any write. An error refuses the
	// conversion outright; the caller may resubmit.
	sig, err := c.store.CheckGlobalCollision(ctx, fp)
	if err != nil {
		zap.L().Error("collision check failed",
			zap.String("workspace_id", workspaceID),
			zap.String("target_id", targetID),
			zap.Error(err))
		return nil, ErrCollisionCheck
	}
	if sig == nil {
		return nil, ErrCollisionCheck
	}
	if sig.Collision && sig.Stage.AtLeast(model.StageAdvancedThreshold) {
		zap.L().Info("conversion blocked by collision",
			zap.String("workspace_id", workspaceID),
			zap.String("target_id", targetID))
		return nil, ErrCollisionBlocked
	}

	company = &model.Company{
		WorkspaceID: workspaceID,
		Name:        target.Name,
		Domain:      normalized,
		Fingerprint: fp,
		Industry:    target.Industry,
	}
	if err := c.store.CreateCompany(ctx, company); err != nil {
		// A concurrent conversion may have won the unique constraint race.
		existing, lookupErr := c.store.GetCompanyByFingerprint(ctx, workspaceID, fp)
		if lookupErr != nil || existing == nil {
			return nil, eris.Wrap(err, "convert: create company")
		}
		return c.resolveExisting(ctx, workspaceID, targetID, existing)
	}

	deal := &model.Deal{
		WorkspaceID: workspaceID,
		CompanyID:   company.ID,
		Stage:       model.StageInbox,
		Status:      model.DealActive,
		Visibility:  model.VisibilityPrivate,
	}
	if err := c.store.CreateDeal(ctx, deal); err != nil {
		existing, lookupErr := c.store.GetDealByCompany(ctx, workspaceID, company.ID)
		if lookupErr != nil || existing == nil {
			return nil, eris.Wrap(err, "convert: create deal")
		}
		c.markConverted(ctx, workspaceID, targetID)
		return &Result{Company: company, Deal: existing, Existing: true}, nil
	}

	c.markConverted(ctx, workspaceID, targetID)
	return &Result{Company: company, Deal: deal}, nil
}

// resolveExisting returns the deal attached to an already-converted
// company, creating it if a previous conversion half-finished.
func (c *Converter) resolveExisting(ctx context.Context, workspaceID, targetID string, company *model.Company) (*Result, error) {
	deal, err := c.store.GetDealByCompany(ctx, workspaceID, company.ID)
	if err != nil {
		return nil, eris.Wrap(err, "convert: check existing deal")
	}
	if deal != nil {
		c.markConverted(ctx, workspaceID, targetID)
		return &Result{Company: company, Deal: deal, Existing: true}, nil
	}

	deal = &model.Deal{
		WorkspaceID: workspaceID,
		CompanyID:   company.ID,
		Stage:       model.StageInbox,
		Status:      model.DealActive,
		Visibility:  model.VisibilityPrivate,
	}
	if err := c.store.CreateDeal(ctx, deal); err != nil {
		return nil, eris.Wrap(err, "convert: create deal for existing company")
	}
	c.markConverted(ctx, workspaceID, targetID)
	return &Result{Company: company, Deal: deal, Existing: true}, nil
}

// markConverted flips the target's sourcing status. Best effort: the
// deal already exists, so a failure here is logged, not returned.
func (c *Converter) markConverted(ctx context.Context, workspaceID, targetID string) {
	if err := c.store.MarkTargetConverted(ctx, workspaceID, targetID); err != nil {
		zap.L().Warn("failed to mark target converted",
			zap.String("workspace_id", workspaceID),
			zap.String("target_id", targetID),
			zap.Error(err))
	}
}
