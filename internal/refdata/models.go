// Package refdata owns the closed reference enumerations a change request
// points at: change types, priorities, risk levels and impact levels. The
// data is read-only at runtime; lookups resolve ids or display names and
// fall back to fixed defaults so an empty system still produces usable
// drafts.
package refdata

// ChangeType categorizes a change. Standard changes are pre-approved by the
// change-control process and skip the approval stage unless a request
// explicitly asks for it.
type ChangeType struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	SelfApproving bool   `json:"self_approving"`
}

// Priority is the urgency of a change.
type Priority struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Rank int    `json:"rank"`
}

// RiskLevel grades the danger of a change.
type RiskLevel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Rank int    `json:"rank"`
}

// ImpactLevel grades the blast radius of a change.
type ImpactLevel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Rank int    `json:"rank"`
}

// Fixed fallback ids used when a supplied reference does not resolve.
const (
	FallbackTypeID     = "normal"
	FallbackPriorityID = "medium"
	FallbackRiskID     = "medium"
	FallbackImpactID   = "medium"
)

// Defaults returns the seed reference set for a fresh system.
func Defaults() ([]ChangeType, []Priority, []RiskLevel, []ImpactLevel) {
	types := []ChangeType{
		{ID: "standard", Name: "Standard", SelfApproving: true},
		{ID: "normal", Name: "Normal"},
		{ID: "emergency", Name: "Emergency"},
	}
	priorities := []Priority{
		{ID: "low", Name: "Low", Rank: 1},
		{ID: "medium", Name: "Medium", Rank: 2},
		{ID: "high", Name: "High", Rank: 3},
		{ID: "critical", Name: "Critical", Rank: 4},
	}
	risks := []RiskLevel{
		{ID: "low", Name: "Low", Rank: 1},
		{ID: "medium", Name: "Medium", Rank: 2},
		{ID: "high", Name: "High", Rank: 3},
	}
	impacts := []ImpactLevel{
		{ID: "low", Name: "Low", Rank: 1},
		{ID: "medium", Name: "Medium", Rank: 2},
		{ID: "high", Name: "High", Rank: 3},
	}
	return types, priorities, risks, impacts
}
