package models

import (
	"time"

	id "changeflow/pkg/domain"
)

// DecisionState is the lifecycle state of a single approver's decision.
type DecisionState string

const (
	DecisionPending  DecisionState = "pending"
	DecisionApproved DecisionState = "approved"
	DecisionRejected DecisionState = "rejected"
)

// ParticipantDecision is one approver's assignment and decision on a change
// request. Assignment and decision live in a single record per approver, so
// the pair (change id, approver id) is unique by construction and there is
// no second collection to keep in lockstep.
type ParticipantDecision struct {
	ApproverID id.UserID     `json:"approver_id"`
	AssignedAt time.Time     `json:"assigned_at"`
	State      DecisionState `json:"state"`
	Comment    string        `json:"comment,omitempty"`
	DecidedAt  *time.Time    `json:"decided_at,omitempty"`
}

// ChangeRequest is the aggregate root for the change-control workflow.
//
// Invariants:
//   - Status is one of the closed set in status.go
//   - Number is assigned once at creation, monotonically increasing, never
//     reused
//   - Approvers holds at most one entry per approver id
//   - a non-nil DeletedAt excludes the record from every workflow operation
//   - Version increments on every persisted mutation (optimistic locking)
type ChangeRequest struct {
	ID     id.ChangeID `json:"id"`
	Number int64       `json:"number"`

	Title              string `json:"title"`
	Description        string `json:"description"`
	ImplementationPlan string `json:"implementation_plan"`
	BackoutPlan        string `json:"backout_plan"`
	Justification      string `json:"justification"`

	TypeID     string `json:"type_id"`
	PriorityID string `json:"priority_id"`
	RiskID     string `json:"risk_id"`
	ImpactID   string `json:"impact_id"`

	Status           Status     `json:"status"`
	ApprovalRequired bool       `json:"approval_required"`
	Strategy         Strategy   `json:"strategy"`
	SubmitterID      id.UserID  `json:"submitter_id"`
	SubmittedAt      *time.Time `json:"submitted_at,omitempty"`
	RequesterID      id.UserID  `json:"requester_id"`
	AssigneeID       id.UserID  `json:"assignee_id"`

	PlannedStart *time.Time `json:"planned_start,omitempty"`
	PlannedEnd   *time.Time `json:"planned_end,omitempty"`
	ActualStart  *time.Time `json:"actual_start,omitempty"`
	ActualEnd    *time.Time `json:"actual_end,omitempty"`

	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
	DeletedBy    id.UserID  `json:"deleted_by,omitempty"`
	DeleteReason string     `json:"delete_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	CreatedBy id.UserID `json:"created_by"`
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy id.UserID `json:"updated_by"`

	Approvers []ParticipantDecision `json:"approvers,omitempty"`

	Version int64 `json:"-"`
}

// ExternalRef is the human-facing reference derived from the sequential
// number, e.g. "CHG-42".
func (c *ChangeRequest) ExternalRef() string {
	return ExternalRef(c.Number)
}

// IsDeleted reports whether the change has been soft-deleted.
func (c *ChangeRequest) IsDeleted() bool {
	return c.DeletedAt != nil
}

// Decision returns the decision record for the given approver, or nil when
// the approver has no assignment on this change.
func (c *ChangeRequest) Decision(approverID id.UserID) *ParticipantDecision {
	for i := range c.Approvers {
		if c.Approvers[i].ApproverID == approverID {
			return &c.Approvers[i]
		}
	}
	return nil
}

// ApproverIDs returns the assigned approver ids in assignment order.
func (c *ChangeRequest) ApproverIDs() []id.UserID {
	ids := make([]id.UserID, 0, len(c.Approvers))
	for _, d := range c.Approvers {
		ids = append(ids, d.ApproverID)
	}
	return ids
}

// AssignApprovers replaces the approver set with fresh pending decisions.
// Duplicate ids are dropped, keeping the first occurrence.
func (c *ChangeRequest) AssignApprovers(approverIDs []id.UserID, now time.Time) {
	seen := make(map[id.UserID]struct{}, len(approverIDs))
	decisions := make([]ParticipantDecision, 0, len(approverIDs))
	for _, approverID := range approverIDs {
		if approverID.IsNil() {
			continue
		}
		if _, ok := seen[approverID]; ok {
			continue
		}
		seen[approverID] = struct{}{}
		decisions = append(decisions, ParticipantDecision{
			ApproverID: approverID,
			AssignedAt: now,
			State:      DecisionPending,
		})
	}
	c.Approvers = decisions
}

// RecordDecision writes the approver's decision in place. A repeated call by
// the same approver overwrites the prior decision rather than adding a row.
// Returns false when the approver has no assignment.
func (c *ChangeRequest) RecordDecision(approverID id.UserID, state DecisionState, comment string, now time.Time) bool {
	d := c.Decision(approverID)
	if d == nil {
		return false
	}
	d.State = state
	d.Comment = comment
	decidedAt := now
	d.DecidedAt = &decidedAt
	return true
}

// Verdict aggregates the current decision set under the configured strategy.
func (c *ChangeRequest) Verdict() Verdict {
	return EvaluateDecisions(c.Approvers, c.Strategy)
}

// MissingSubmissionFields returns the names of required fields that are not
// yet populated. An empty result means the change is complete enough to
// submit. Draft creation and editing are intentionally permissive; this is
// checked only at submission.
func (c *ChangeRequest) MissingSubmissionFields() []string {
	var missing []string
	if c.Title == "" {
		missing = append(missing, "title")
	}
	if c.TypeID == "" {
		missing = append(missing, "type")
	}
	if c.RiskID == "" {
		missing = append(missing, "risk_level")
	}
	if c.PlannedStart == nil {
		missing = append(missing, "planned_start")
	}
	if c.Description == "" {
		missing = append(missing, "description")
	}
	if c.BackoutPlan == "" {
		missing = append(missing, "backout_plan")
	}
	return missing
}

// Clone returns a deep copy so stores can hand out snapshots without
// aliasing the approver slice.
func (c *ChangeRequest) Clone() *ChangeRequest {
	dup := *c
	dup.Approvers = append([]ParticipantDecision{}, c.Approvers...)
	return &dup
}
