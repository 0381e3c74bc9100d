package models

import (
	"fmt"
	"time"
)

// ExternalRef formats the human-facing reference for a sequential number.
func ExternalRef(number int64) string {
	return fmt.Sprintf("CHG-%d", number)
}

// DraftPayload is the normalized input for creating a draft. Category fields
// carry an id or a display name; the draft builder resolves them against
// reference data. Completeness is not enforced here.
type DraftPayload struct {
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	ImplementationPlan string     `json:"implementation_plan"`
	BackoutPlan        string     `json:"backout_plan"`
	Justification      string     `json:"justification"`
	Type               string     `json:"type"`
	Priority           string     `json:"priority"`
	Risk               string     `json:"risk"`
	Impact             string     `json:"impact"`
	RequestedBy        string     `json:"requested_by"`
	AssigneeID         string     `json:"assignee_id"`
	PlannedStart       *time.Time `json:"planned_start"`
	PlannedEnd         *time.Time `json:"planned_end"`
	ApprovalRequired   bool       `json:"approval_required"`
	Strategy           string     `json:"strategy"`
}

// DraftUpdate is a partial update for an editable change request. Nil fields
// are left untouched.
type DraftUpdate struct {
	Title              *string    `json:"title"`
	Description        *string    `json:"description"`
	ImplementationPlan *string    `json:"implementation_plan"`
	BackoutPlan        *string    `json:"backout_plan"`
	Justification      *string    `json:"justification"`
	Type               *string    `json:"type"`
	Priority           *string    `json:"priority"`
	Risk               *string    `json:"risk"`
	Impact             *string    `json:"impact"`
	AssigneeID         *string    `json:"assignee_id"`
	PlannedStart       *time.Time `json:"planned_start"`
	PlannedEnd         *time.Time `json:"planned_end"`
	ApprovalRequired   *bool      `json:"approval_required"`
	Strategy           *string    `json:"strategy"`
}

// ListFilter narrows List results. Zero values match everything; deleted
// records are excluded unless IncludeDeleted is set.
type ListFilter struct {
	Status         Status
	RequesterID    string
	IncludeDeleted bool
	Limit          int
}
