package service

import (
	"encoding/json"

	"changeflow/internal/audit"
	"changeflow/internal/change/models"
	id "changeflow/pkg/domain"
)

const entityType = "change_request"

// buildEvent assembles the single audit record emitted for a committed
// mutation. The details payload always carries the from/to status so the
// trail can be read without re-deriving workflow rules.
func (s *Service) buildEvent(cr *models.ChangeRequest, actorID id.UserID, from models.Status, m *mutation) audit.Event {
	details := map[string]any{
		"from_status": string(from),
		"to_status":   string(cr.Status),
	}
	for k, v := range m.details {
		details[k] = v
	}
	payload, err := json.Marshal(details)
	if err != nil {
		// A details map of strings cannot fail to marshal; guard anyway so
		// a malformed payload never suppresses the event.
		payload = []byte(`{}`)
	}
	return audit.Event{
		Action:     m.action,
		ActorID:    actorID.String(),
		EntityType: entityType,
		EntityID:   cr.ID.String(),
		EntityRef:  cr.ExternalRef(),
		Reason:     m.reason,
		Details:    payload,
	}
}

func approverStrings(ids []id.UserID) []string {
	out := make([]string, 0, len(ids))
	for _, approverID := range ids {
		out = append(out, approverID.String())
	}
	return out
}
