package model

import "time"

// SourcingStatus is the outreach lifecycle of a prospective company.
type SourcingStatus string

const (
	SourcingUntouched  SourcingStatus = "untouched"
	SourcingInSequence SourcingStatus = "in_sequence"
	SourcingReplied    SourcingStatus = "replied"
	SourcingArchived   SourcingStatus = "archived"
	SourcingConverted  SourcingStatus = "converted"
)

var sourcingStatuses = map[SourcingStatus]bool{
	SourcingUntouched:  true,
	SourcingInSequence: true,
	SourcingReplied:    true,
	SourcingArchived:   true,
	SourcingConverted:  true,
}

// Valid reports whether s is a known sourcing status.
func (s SourcingStatus) Valid() bool {
	return sourcingStatuses[s]
}

// SourcingTarget is a prospective company in the workspace's universe.
// Created by CSV import or manual entry; transitions to converted exactly
// once, when promoted to a deal.
type SourcingTarget struct {
	ID          string         `json:"id" db:"id"`
	WorkspaceID string         `json:"workspace_id" db:"workspace_id"`
	Name        string         `json:"name" db:"name"`
	Domain      string         `json:"domain" db:"domain"`
	Industry    string         `json:"industry,omitempty" db:"industry"`
	FitScore    float64        `json:"fit_score" db:"fit_score"`
	Status      SourcingStatus `json:"status" db:"status"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
}
