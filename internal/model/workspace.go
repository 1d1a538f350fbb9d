// Package model defines the tenant-scoped entities and enums shared
// across the deal pipeline.
package model

import "time"

// WorkspaceType distinguishes the two tenant kinds.
type WorkspaceType string

const (
	WorkspaceSearcher WorkspaceType = "searcher"
	WorkspaceInvestor WorkspaceType = "investor"
)

// Valid reports whether t is a known workspace type.
func (t WorkspaceType) Valid() bool {
	return t == WorkspaceSearcher || t == WorkspaceInvestor
}

// Role is a user's role within a workspace.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleAnalyst Role = "analyst"
)

// SubscriptionPlan is the workspace billing tier.
type SubscriptionPlan string

const (
	PlanFree SubscriptionPlan = "free"
	PlanPro  SubscriptionPlan = "pro"
)

// Workspace is the tenant boundary. Every other entity carries a
// WorkspaceID and is never visible across workspaces.
type Workspace struct {
	ID        string           `json:"id" db:"id"`
	Type      WorkspaceType    `json:"workspace_type" db:"workspace_type"`
	Name      string           `json:"name" db:"name"`
	Plan      SubscriptionPlan `json:"subscription_plan" db:"subscription_plan"`
	DeletedAt *time.Time       `json:"deleted_at,omitempty" db:"deleted_at"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}

// User belongs to exactly one workspace.
type User struct {
	ID           string    `json:"id" db:"id"`
	WorkspaceID  string    `json:"workspace_id" db:"workspace_id"`
	Role         Role      `json:"role" db:"role"`
	Email        string    `json:"email" db:"email"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	LinkedInURL  string    `json:"linkedin_url,omitempty" db:"linkedin_url"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Initials returns the user's initials for board avatars.
func (u User) Initials() string {
	var out []byte
	if u.FirstName != "" {
		out = append(out, u.FirstName[0])
	}
	if u.LastName != "" {
		out = append(out, u.LastName[0])
	}
	return string(out)
}
