// Package store defines the persistence interface for the deal pipeline
// and its postgres and in-memory implementations.
package store

import (
	"context"

	"github.com/jaimenoain/ceeq/internal/model"
)

// TargetFilter specifies criteria for listing sourcing targets.
type TargetFilter struct {
	Search   string               `json:"search,omitempty"`   // matches name or domain
	Status   model.SourcingStatus `json:"status,omitempty"`
	Industry string               `json:"industry,omitempty"`
	Page     int                  `json:"page,omitempty"`
	Limit    int                  `json:"limit,omitempty"`
}

// CollisionSignal is the only data the collision check may reveal about
// other workspaces: whether any active deal holds the fingerprint, and at
// which stage. Never identifiers, names, or counts.
type CollisionSignal struct {
	Collision bool            `json:"collision"`
	Stage     model.DealStage `json:"stage,omitempty"`
}

// FirmographicsUpdate carries the editable company attributes.
type FirmographicsUpdate struct {
	Industry      *string `json:"industry,omitempty"`
	City          *string `json:"city,omitempty"`
	State         *string `json:"state,omitempty"`
	EmployeeCount *int    `json:"employee_count,omitempty"`
}

// FinancialsUpdate carries the editable deal financials.
type FinancialsUpdate struct {
	AskingPrice *int64 `json:"asking_price,omitempty"`
	Revenue     *int64 `json:"revenue,omitempty"`
	EBITDA      *int64 `json:"ebitda,omitempty"`
}

// Store defines the persistence interface. All reads and writes on
// tenant-owned rows are scoped by workspace id; lookups return (nil, nil)
// when no row is visible to that workspace.
type Store interface {
	// Workspaces and users
	CreateWorkspace(ctx context.Context, ws *model.Workspace) error
	GetWorkspace(ctx context.Context, id string) (*model.Workspace, error)
	DeleteWorkspace(ctx context.Context, id string) error
	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	// Sourcing targets
	GetTarget(ctx context.Context, workspaceID, targetID string) (*model.SourcingTarget, error)
	ListTargets(ctx context.Context, workspaceID string, filter TargetFilter) ([]model.SourcingTarget, int, error)
	BulkInsertTargets(ctx context.Context, workspaceID string, targets []model.SourcingTarget) (int64, error)
	UpdateTargetStatuses(ctx context.Context, workspaceID string, targetIDs []string, status model.SourcingStatus) (int64, error)
	MarkTargetConverted(ctx context.Context, workspaceID, targetID string) error

	// Companies
	CreateCompany(ctx context.Context, c *model.Company) error
	GetCompany(ctx context.Context, workspaceID, id string) (*model.Company, error)
	GetCompanyByFingerprint(ctx context.Context, workspaceID, fingerprint string) (*model.Company, error)
	UpdateCompanyFirmographics(ctx context.Context, workspaceID, id string, upd FirmographicsUpdate) error

	// Deals
	CreateDeal(ctx context.Context, d *model.Deal) error
	GetDeal(ctx context.Context, workspaceID, id string) (*model.Deal, error)
	GetDealByCompany(ctx context.Context, workspaceID, companyID string) (*model.Deal, error)
	UpdateDealStage(ctx context.Context, workspaceID, id string, stage model.DealStage) error
	CloseDeal(ctx context.Context, workspaceID, id string, status model.DealStatus, lossReason string) error
	UpdateDealFinancials(ctx context.Context, workspaceID, id string, upd FinancialsUpdate) error
	ListActiveDeals(ctx context.Context, workspaceID string) ([]model.KanbanDeal, error)
	ListSharedDeals(ctx context.Context) ([]model.SharedDeal, error)

	// Cross-tenant collision check. Implementations must expose nothing
	// beyond the signal; failures must be surfaced, never swallowed, so
	// callers can fail closed.
	CheckGlobalCollision(ctx context.Context, fingerprint string) (*CollisionSignal, error)

	// Dashboard
	CountTargets(ctx context.Context, workspaceID string) (int, error)
	CountEngagedTargets(ctx context.Context, workspaceID string) (int, error)
	CountActiveDeals(ctx context.Context, workspaceID string) (int, error)
	CountDealsAtOrBeyond(ctx context.Context, workspaceID string, stage model.DealStage) (int, error)
	RecentDeals(ctx context.Context, workspaceID string, limit int) ([]model.KanbanDeal, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
