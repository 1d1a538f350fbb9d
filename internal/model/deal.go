package model

import "time"

// DealStage is the ordered pipeline stage enum. Stage ordering is defined
// once here; every stage comparison in the codebase goes through Index
// and AtLeast.
type DealStage string

const (
	StageInbox        DealStage = "inbox"
	StageNDASigned    DealStage = "nda_signed"
	StageCIMReview    DealStage = "cim_review"
	StageLOIIssued    DealStage = "loi_issued"
	StageDueDiligence DealStage = "due_diligence"
	StageClosedWon    DealStage = "closed_won"
)

// Stages lists all pipeline stages in order.
var Stages = []DealStage{
	StageInbox,
	StageNDASigned,
	StageCIMReview,
	StageLOIIssued,
	StageDueDiligence,
	StageClosedWon,
}

// Stage thresholds.
const (
	// StageAdvancedThreshold is the stage at or beyond which a deal in
	// another workspace blocks conversion of the same domain.
	StageAdvancedThreshold = StageNDASigned

	// StageLossReasonThreshold is the stage at or beyond which archiving
	// a deal requires a loss reason.
	StageLossReasonThreshold = StageCIMReview
)

var stageIndex = map[DealStage]int{
	StageInbox:        0,
	StageNDASigned:    1,
	StageCIMReview:    2,
	StageLOIIssued:    3,
	StageDueDiligence: 4,
	StageClosedWon:    5,
}

// Index returns the stage's position in the pipeline, or -1 when unknown.
func (s DealStage) Index() int {
	if i, ok := stageIndex[s]; ok {
		return i
	}
	return -1
}

// Valid reports whether s is a known stage.
func (s DealStage) Valid() bool {
	_, ok := stageIndex[s]
	return ok
}

// AtLeast reports whether s is at or beyond other in pipeline order.
// Unknown stages are never at or beyond anything.
func (s DealStage) AtLeast(other DealStage) bool {
	si, so := s.Index(), other.Index()
	return si >= 0 && so >= 0 && si >= so
}

// DealStatus is the lifecycle status of a deal.
type DealStatus string

const (
	DealActive   DealStatus = "active"
	DealArchived DealStatus = "archived"
	DealLost     DealStatus = "lost"
)

// VisibilityTier controls whether a deal is shared with investors.
type VisibilityTier string

const (
	VisibilityPrivate VisibilityTier = "private"
	VisibilityShared  VisibilityTier = "shared"
)

// LossReasons is the enumerated list offered by the UI. The backend only
// requires a non-empty string.
var LossReasons = []string{
	"Price too high",
	"Legal issues",
	"Owner withdrew",
	"Competitor chosen",
	"Other",
}

// Company is the canonical record of a business within a workspace. The
// Fingerprint is the cross-tenant comparison key; the raw domain never
// leaves the owning workspace.
type Company struct {
	ID            string    `json:"id" db:"id"`
	WorkspaceID   string    `json:"workspace_id" db:"workspace_id"`
	Name          string    `json:"name" db:"name"`
	Domain        string    `json:"domain" db:"domain"`
	Fingerprint   string    `json:"-" db:"fingerprint"`
	Industry      string    `json:"industry,omitempty" db:"industry"`
	City          string    `json:"city,omitempty" db:"city"`
	State         string    `json:"state,omitempty" db:"state"`
	EmployeeCount *int      `json:"employee_count,omitempty" db:"employee_count"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// Deal is a tracked acquisition opportunity, one per company per
// workspace.
type Deal struct {
	ID          string         `json:"id" db:"id"`
	WorkspaceID string         `json:"workspace_id" db:"workspace_id"`
	CompanyID   string         `json:"company_id" db:"company_id"`
	Stage       DealStage      `json:"stage" db:"stage"`
	Status      DealStatus     `json:"status" db:"status"`
	Visibility  VisibilityTier `json:"visibility" db:"visibility"`
	LossReason  string         `json:"loss_reason,omitempty" db:"loss_reason"`
	AskingPrice *int64         `json:"asking_price,omitempty" db:"asking_price"`
	Revenue     *int64         `json:"revenue,omitempty" db:"revenue"`
	EBITDA      *int64         `json:"ebitda,omitempty" db:"ebitda"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// MarginPercent returns EBITDA as a percentage of revenue, or nil when
// either figure is missing or revenue is zero.
func (d Deal) MarginPercent() *float64 {
	if d.Revenue == nil || d.EBITDA == nil || *d.Revenue == 0 {
		return nil
	}
	m := float64(*d.EBITDA) / float64(*d.Revenue) * 100
	return &m
}
