package model

import (
	"fmt"
	"time"
)

// KanbanDeal is a deal card on the pipeline board.
type KanbanDeal struct {
	ID          string         `json:"id"`
	CompanyName string         `json:"company_name"`
	Stage       DealStage      `json:"stage"`
	Visibility  VisibilityTier `json:"visibility"`
	Industry    string         `json:"industry,omitempty"`
	UpdatedAgo  string         `json:"updated_at_relative"`
}

// Board groups active deals into stage columns.
type Board struct {
	Columns map[DealStage][]KanbanDeal `json:"columns"`
}

// NewBoard returns a board with every stage column present, empty or not,
// so clients always render six columns.
func NewBoard() Board {
	cols := make(map[DealStage][]KanbanDeal, len(Stages))
	for _, s := range Stages {
		cols[s] = []KanbanDeal{}
	}
	return Board{Columns: cols}
}

// UniverseRow is a sourcing target row in the universe table.
type UniverseRow struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Domain   string         `json:"domain"`
	Industry string         `json:"industry,omitempty"`
	FitScore float64        `json:"fit_score"`
	Status   SourcingStatus `json:"status"`
	AddedAgo string         `json:"added_relative"`
}

// UniversePage is a paginated universe listing.
type UniversePage struct {
	Rows       []UniverseRow `json:"data"`
	TotalCount int           `json:"total_count"`
	Page       int           `json:"current_page"`
	TotalPages int           `json:"total_pages"`
}

// DashboardMetrics summarizes a searcher workspace.
type DashboardMetrics struct {
	TotalSourced int          `json:"total_sourced"`
	TotalEngaged int          `json:"total_engaged"`
	ActiveDeals  int          `json:"active_deals"`
	LOIsIssued   int          `json:"lois_issued"`
	RecentDeals  []KanbanDeal `json:"recent_deals"`
}

// SharedDeal is a shared-visibility deal as seen from the investor feed.
type SharedDeal struct {
	DealID        string    `json:"deal_id"`
	CompanyName   string    `json:"company_name"`
	SearcherName  string    `json:"searcher_workspace_name"`
	Stage         DealStage `json:"stage"`
	Revenue       *int64    `json:"revenue"`
	EBITDA        *int64    `json:"ebitda"`
	MarginPercent *float64  `json:"margin_percent"`
}

// RelativeTime renders t relative to now ("just now", "2 hours ago").
func RelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d.Minutes()), "minute")
	case d < 24*time.Hour:
		return plural(int(d.Hours()), "hour")
	default:
		return plural(int(d.Hours()/24), "day")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
