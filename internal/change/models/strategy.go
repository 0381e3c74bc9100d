package models

import "strings"

// Strategy names the consensus rule used to aggregate approver decisions.
type Strategy string

const (
	// StrategyAny approves as soon as a single approver approves.
	StrategyAny Strategy = "any"
	// StrategyMajority approves once approvals exceed half of all assigned
	// approvers. An exact tie does not satisfy the majority.
	StrategyMajority Strategy = "majority"
	// StrategyAll approves only when every assigned approver has approved.
	StrategyAll Strategy = "all"
)

func (s Strategy) String() string {
	return string(s)
}

// ParseStrategy normalizes a strategy string case-insensitively.
// Unrecognized or blank input defaults to Any; this policy lives here once
// rather than at call sites.
func ParseStrategy(raw string) Strategy {
	switch Strategy(strings.ToLower(strings.TrimSpace(raw))) {
	case StrategyMajority:
		return StrategyMajority
	case StrategyAll:
		return StrategyAll
	default:
		return StrategyAny
	}
}

// Verdict is the aggregated outcome of the assigned approvers' decisions.
type Verdict string

const (
	VerdictPending  Verdict = "pending"
	VerdictApproved Verdict = "approved"
	VerdictRejected Verdict = "rejected"
)

// EvaluateDecisions aggregates the decision set under the given strategy.
// It is a pure function of its inputs and never consults persisted status.
//
// Rules:
//   - any explicit rejection is terminal, regardless of strategy
//   - zero approvals never approve and never reject on their own
//   - All: approved iff every assigned approver approved
//   - Majority: approved iff approvals strictly exceed half of the assigned
//     approvers (the denominator counts non-responders; an exact tie stays
//     pending)
//   - Any: approved as soon as one approval exists
func EvaluateDecisions(decisions []ParticipantDecision, strategy Strategy) Verdict {
	approved := 0
	for _, d := range decisions {
		switch d.State {
		case DecisionRejected:
			return VerdictRejected
		case DecisionApproved:
			approved++
		}
	}
	if approved == 0 {
		return VerdictPending
	}

	total := len(decisions)
	switch strategy {
	case StrategyAll:
		if approved == total {
			return VerdictApproved
		}
	case StrategyMajority:
		if approved*2 > total {
			return VerdictApproved
		}
	default: // StrategyAny
		return VerdictApproved
	}
	return VerdictPending
}
