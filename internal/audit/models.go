package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Action is a short event-type code. The set below is the vocabulary of the
// audit trail; consumers key retention and alerting off it.
type Action string

const (
	ActionChangeCreated    Action = "change_created"
	ActionChangeUpdated    Action = "change_updated"
	ActionChangeSubmitted  Action = "change_submitted"
	ActionDecisionRecorded Action = "decision_recorded"
	ActionChangeReverted   Action = "change_reverted_to_draft"
	ActionChangeScheduled  Action = "change_scheduled"
	ActionChangeStarted    Action = "change_started"
	ActionChangeCompleted  Action = "change_completed"
	ActionChangeClosed     Action = "change_closed"
	ActionChangeCancelled  Action = "change_cancelled"
	ActionChangeDeleted    Action = "change_deleted"
	ActionChangeRestored   Action = "change_restored"
	ActionUserBootstrapped Action = "user_bootstrapped"
)

// Event is emitted from domain logic to capture one committed mutation.
// It is append-only: never updated, never deleted. It carries no foreign
// keys into the mutable entities so it stays readable after the referenced
// entity is gone. Keep it transport-agnostic so stores and sinks can fan
// out.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	ActorID   string    `json:"actor_id"`
	ActorName string    `json:"actor_name,omitempty"`
	// EntityType/EntityID/EntityRef locate the affected record by schema
	// type, opaque id and human-facing reference (e.g. "CHG-42").
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	EntityRef  string `json:"entity_ref,omitempty"`
	Reason     string `json:"reason,omitempty"`
	// Details is an opaque structured payload; for workflow transitions it
	// records at least the from/to status and, where relevant, the strategy
	// and approver set.
	Details json.RawMessage `json:"details,omitempty"`
}
