package models

import "strings"

// Status is the lifecycle state of a change request.
//
// Invariants:
//   - Status is always one of the closed set below
//   - Transitions are gated by the single table in statusTransitions;
//     anything not listed there is illegal
//   - Soft deletion is orthogonal: a deleted change accepts no transition
//     regardless of status
type Status string

const (
	StatusDraft            Status = "draft"
	StatusSubmitted        Status = "submitted"
	StatusPendingApproval  Status = "pending_approval"
	StatusApproved         Status = "approved"
	StatusScheduled        Status = "scheduled"
	StatusInImplementation Status = "in_implementation"
	StatusCompleted        Status = "completed"
	StatusClosed           Status = "closed"
	StatusRejected         Status = "rejected"
	StatusCancelled        Status = "cancelled"
)

// statusTransitions is the single source of truth for legal transitions.
// Cancellation is reachable from every status except Closed and Cancelled;
// Closed and Cancelled have no way out.
var statusTransitions = map[Status][]Status{
	StatusDraft:            {StatusSubmitted, StatusPendingApproval, StatusCancelled},
	StatusSubmitted:        {StatusDraft, StatusApproved, StatusScheduled, StatusCancelled},
	StatusPendingApproval:  {StatusDraft, StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved:         {StatusScheduled, StatusInImplementation, StatusCancelled},
	StatusScheduled:        {StatusInImplementation, StatusCancelled},
	StatusInImplementation: {StatusCompleted, StatusCancelled},
	StatusCompleted:        {StatusClosed, StatusCancelled},
	StatusClosed:           {},
	StatusRejected:         {StatusCancelled},
	StatusCancelled:        {},
}

// AllStatuses returns the closed status set, ordered roughly by progression.
func AllStatuses() []Status {
	return []Status{
		StatusDraft, StatusSubmitted, StatusPendingApproval, StatusApproved,
		StatusScheduled, StatusInImplementation, StatusCompleted, StatusClosed,
		StatusRejected, StatusCancelled,
	}
}

// CanTransitionTo reports whether next is directly reachable from s.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AllowedNext returns the statuses directly reachable from s.
func (s Status) AllowedNext() []Status {
	return append([]Status{}, statusTransitions[s]...)
}

// IsTerminal reports whether s has no outgoing transitions.
func (s Status) IsTerminal() bool {
	return len(statusTransitions[s]) == 0
}

// IsEditable reports whether descriptive fields may still change. Edits are
// blocked once approval has been reached.
func (s Status) IsEditable() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusPendingApproval:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// ParseStatus normalizes a stored or user-supplied status string.
// Unrecognized or blank input defaults to Draft; this policy is asserted
// here once rather than at call sites.
func ParseStatus(raw string) Status {
	normalized := Status(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := statusTransitions[normalized]; ok {
		return normalized
	}
	return StatusDraft
}
