package service

import (
	"context"
	"encoding/json"
	"strings"

	"changeflow/internal/audit"
	"changeflow/internal/change/models"
	id "changeflow/pkg/domain"
	dErrors "changeflow/pkg/domain-errors"
	"changeflow/pkg/requestcontext"
)

// CreateDraft validates and normalizes a creation payload into a new draft.
// Category references are resolved against reference data with the fixed
// fallback policy; the requester falls back through the resolution chain in
// identity.ResolveRequester. Completeness is deliberately not enforced
// here — drafts may be partial until submission.
func (s *Service) CreateDraft(ctx context.Context, payload models.DraftPayload, actorID id.UserID) (*models.ChangeRequest, error) {
	ctx, span := s.tracer.Start(ctx, "change.create_draft")
	defer span.End()

	now := requestcontext.Now(ctx)

	typeID, err := s.refdata.ResolveType(ctx, payload.Type)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve change type")
	}
	priorityID, err := s.refdata.ResolvePriority(ctx, payload.Priority)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve priority")
	}
	riskID, err := s.refdata.ResolveRisk(ctx, payload.Risk)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve risk level")
	}
	impactID, err := s.refdata.ResolveImpact(ctx, payload.Impact)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve impact level")
	}

	var suppliedRequester id.UserID
	if payload.RequestedBy != "" {
		if parsed, err := id.ParseUserID(payload.RequestedBy); err == nil {
			suppliedRequester = parsed
		}
	}
	requesterID, err := s.requester.ResolveRequester(ctx, suppliedRequester)
	if err != nil {
		return nil, err
	}

	var assigneeID id.UserID
	if payload.AssigneeID != "" {
		parsed, err := id.ParseUserID(payload.AssigneeID)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeBadRequest, "assignee_id is not a valid user id")
		}
		assigneeID = parsed
	}

	number, err := s.store.NextNumber(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate change number")
	}

	creator := actorID
	if creator.IsNil() {
		creator = requesterID
	}

	cr := &models.ChangeRequest{
		ID:                 id.NewChangeID(),
		Number:             number,
		Title:              strings.TrimSpace(payload.Title),
		Description:        payload.Description,
		ImplementationPlan: payload.ImplementationPlan,
		BackoutPlan:        payload.BackoutPlan,
		Justification:      payload.Justification,
		TypeID:             typeID,
		PriorityID:         priorityID,
		RiskID:             riskID,
		ImpactID:           impactID,
		Status:             models.StatusDraft,
		ApprovalRequired:   payload.ApprovalRequired,
		Strategy:           models.ParseStrategy(payload.Strategy),
		RequesterID:        requesterID,
		AssigneeID:         assigneeID,
		PlannedStart:       payload.PlannedStart,
		PlannedEnd:         payload.PlannedEnd,
		CreatedAt:          now,
		CreatedBy:          creator,
		UpdatedAt:          now,
		UpdatedBy:          creator,
	}

	err = s.tx.RunInTx(ctx, cr.ID, func(ctx context.Context) error {
		if err := s.store.Create(ctx, cr); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create change request")
		}
		return s.recorder.Record(ctx, audit.Event{
			Action:     audit.ActionChangeCreated,
			ActorID:    creator.String(),
			EntityType: entityType,
			EntityID:   cr.ID.String(),
			EntityRef:  cr.ExternalRef(),
			Details:    mustDetails(map[string]any{"status": string(cr.Status), "type": cr.TypeID}),
		})
	})
	if err != nil {
		return nil, err
	}
	return cr, nil
}

// UpdateDraft applies a partial edit. Edits are rejected once approval has
// been reached; nil fields are left untouched.
func (s *Service) UpdateDraft(ctx context.Context, changeID id.ChangeID, update models.DraftUpdate, actorID id.UserID) (*models.ChangeRequest, error) {
	return s.mutate(ctx, changeID, actorID, "update_draft", func(ctx context.Context, cr *models.ChangeRequest) (*mutation, error) {
		if !cr.Status.IsEditable() {
			return nil, dErrors.Newf(dErrors.CodeInvalidTransition,
				"change request in status %s can no longer be edited", cr.Status)
		}

		if update.Title != nil {
			cr.Title = strings.TrimSpace(*update.Title)
		}
		if update.Description != nil {
			cr.Description = *update.Description
		}
		if update.ImplementationPlan != nil {
			cr.ImplementationPlan = *update.ImplementationPlan
		}
		if update.BackoutPlan != nil {
			cr.BackoutPlan = *update.BackoutPlan
		}
		if update.Justification != nil {
			cr.Justification = *update.Justification
		}
		if update.Type != nil {
			typeID, err := s.refdata.ResolveType(ctx, *update.Type)
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve change type")
			}
			cr.TypeID = typeID
		}
		if update.Priority != nil {
			priorityID, err := s.refdata.ResolvePriority(ctx, *update.Priority)
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve priority")
			}
			cr.PriorityID = priorityID
		}
		if update.Risk != nil {
			riskID, err := s.refdata.ResolveRisk(ctx, *update.Risk)
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve risk level")
			}
			cr.RiskID = riskID
		}
		if update.Impact != nil {
			impactID, err := s.refdata.ResolveImpact(ctx, *update.Impact)
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve impact level")
			}
			cr.ImpactID = impactID
		}
		if update.AssigneeID != nil {
			if *update.AssigneeID == "" {
				cr.AssigneeID = id.UserID{}
			} else {
				parsed, err := id.ParseUserID(*update.AssigneeID)
				if err != nil {
					return nil, dErrors.New(dErrors.CodeBadRequest, "assignee_id is not a valid user id")
				}
				cr.AssigneeID = parsed
			}
		}
		if update.PlannedStart != nil {
			cr.PlannedStart = update.PlannedStart
		}
		if update.PlannedEnd != nil {
			cr.PlannedEnd = update.PlannedEnd
		}
		if update.ApprovalRequired != nil {
			cr.ApprovalRequired = *update.ApprovalRequired
		}
		if update.Strategy != nil {
			cr.Strategy = models.ParseStrategy(*update.Strategy)
		}

		return &mutation{action: audit.ActionChangeUpdated}, nil
	})
}

func mustDetails(details map[string]any) []byte {
	payload, err := json.Marshal(details)
	if err != nil {
		return []byte(`{}`)
	}
	return payload
}
