package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"changeflow/internal/audit"
	"changeflow/internal/change/models"
	id "changeflow/pkg/domain"
	dErrors "changeflow/pkg/domain-errors"
	"changeflow/pkg/platform/sentinel"
	"changeflow/pkg/requestcontext"
)

// SubmitParams carries the submission inputs.
type SubmitParams struct {
	ApproverIDs []id.UserID
	Strategy    string
	Reason      string
}

// Submit moves a complete draft into the workflow. Self-approving change
// types go straight to Submitted unless the request explicitly demands
// approval; everything else gets a fresh pending decision per approver and
// waits in PendingApproval.
func (s *Service) Submit(ctx context.Context, changeID id.ChangeID, actorID id.UserID, params SubmitParams) (*models.ChangeRequest, error) {
	return s.mutate(ctx, changeID, actorID, "submit", func(ctx context.Context, cr *models.ChangeRequest) (*mutation, error) {
		if cr.Status != models.StatusDraft {
			return nil, dErrors.Newf(dErrors.CodeInvalidTransition,
				"submit is only legal from %s, current status is %s", models.StatusDraft, cr.Status)
		}
		if missing := cr.MissingSubmissionFields(); len(missing) > 0 {
			return nil, dErrors.Newf(dErrors.CodeValidation,
				"required field missing: %s", strings.Join(missing, ", "))
		}

		if params.Strategy != "" {
			cr.Strategy = models.ParseStrategy(params.Strategy)
		}

		selfApproves, err := s.refdata.TypeSelfApproves(ctx, cr.TypeID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve change type")
		}
		approvalRequired := cr.ApprovalRequired || !selfApproves

		now := requestcontext.Now(ctx)
		cr.SubmitterID = actorID
		submittedAt := now
		cr.SubmittedAt = &submittedAt

		if !approvalRequired {
			if err := requireTransition(cr, models.StatusSubmitted); err != nil {
				return nil, err
			}
			return &mutation{
				action: audit.ActionChangeSubmitted,
				reason: params.Reason,
				details: map[string]any{
					"approval_required": false,
				},
			}, nil
		}

		approverIDs := dedupeApprovers(params.ApproverIDs)
		if len(approverIDs) == 0 {
			// Fall back to whoever was assigned on a previous submission.
			approverIDs = cr.ApproverIDs()
		}
		if len(approverIDs) == 0 {
			return nil, dErrors.New(dErrors.CodeValidation, "at least one approver required")
		}

		if err := requireTransition(cr, models.StatusPendingApproval); err != nil {
			return nil, err
		}
		cr.AssignApprovers(approverIDs, now)

		return &mutation{
			action: audit.ActionChangeSubmitted,
			reason: params.Reason,
			details: map[string]any{
				"approval_required": true,
				"strategy":          string(cr.Strategy),
				"approvers":         approverStrings(cr.ApproverIDs()),
			},
		}, nil
	})
}

// RecordDecision writes one approver's verdict and re-aggregates the
// overall outcome. A rejection is terminal regardless of strategy; an
// approval promotes the change only when the configured consensus rule is
// satisfied. Re-deciding overwrites the approver's earlier decision.
// Actors without an assignment get not-found, indistinguishable from a
// missing change.
func (s *Service) RecordDecision(ctx context.Context, changeID id.ChangeID, actorID id.UserID, approve bool, comment string) (*models.ChangeRequest, error) {
	return s.mutate(ctx, changeID, actorID, "record_decision", func(ctx context.Context, cr *models.ChangeRequest) (*mutation, error) {
		if cr.Status != models.StatusPendingApproval {
			return nil, dErrors.Newf(dErrors.CodeInvalidTransition,
				"decisions are only accepted in %s, current status is %s", models.StatusPendingApproval, cr.Status)
		}
		if cr.Decision(actorID) == nil {
			return nil, dErrors.New(dErrors.CodeNotFound, "change request not found")
		}

		now := requestcontext.Now(ctx)
		state := models.DecisionApproved
		if !approve {
			state = models.DecisionRejected
		}
		cr.RecordDecision(actorID, state, comment, now)

		verdict := cr.Verdict()
		switch verdict {
		case models.VerdictRejected:
			if err := requireTransition(cr, models.StatusRejected); err != nil {
				return nil, err
			}
		case models.VerdictApproved:
			if err := requireTransition(cr, models.StatusApproved); err != nil {
				return nil, err
			}
		}

		if s.metrics != nil {
			s.metrics.Decisions.WithLabelValues(string(state)).Inc()
		}
		return &mutation{
			action: audit.ActionDecisionRecorded,
			details: map[string]any{
				"approver": actorID.String(),
				"decision": string(state),
				"strategy": string(cr.Strategy),
				"verdict":  string(verdict),
			},
		}, nil
	})
}

// RevertToDraft sends a submitted or pending change back for rework.
// Approver assignments are left in place; the next Submit replaces them.
func (s *Service) RevertToDraft(ctx context.Context, changeID id.ChangeID, actorID id.UserID, reason string) (*models.ChangeRequest, error) {
	return s.mutate(ctx, changeID, actorID, "revert_to_draft", func(_ context.Context, cr *models.ChangeRequest) (*mutation, error) {
		if cr.Status != models.StatusSubmitted && cr.Status != models.StatusPendingApproval {
			return nil, dErrors.Newf(dErrors.CodeInvalidTransition,
				"cannot revert to draft from %s", cr.Status)
		}
		if err := requireTransition(cr, models.StatusDraft); err != nil {
			return nil, err
		}
		return &mutation{action: audit.ActionChangeReverted, reason: reason}, nil
	})
}

// Schedule fixes the implementation window of an approved (or directly
// submitted self-approving) change.
func (s *Service) Schedule(ctx context.Context, changeID id.ChangeID, actorID id.UserID, plannedStart, plannedEnd time.Time) (*models.ChangeRequest, error) {
	return s.mutate(ctx, changeID, actorID, "schedule", func(_ context.Context, cr *models.ChangeRequest) (*mutation, error) {
		if plannedStart.IsZero() {
			return nil, dErrors.New(dErrors.CodeValidation, "planned_start is required")
		}
		if !plannedEnd.IsZero() && plannedEnd.Before(plannedStart) {
			return nil, dErrors.New(dErrors.CodeValidation, "planned_end must not precede planned_start")
		}
		if err := requireTransition(cr, models.StatusScheduled); err != nil {
			return nil, err
		}
		start := plannedStart
		cr.PlannedStart = &start
		if plannedEnd.IsZero() {
			cr.PlannedEnd = nil
		} else {
			end := plannedEnd
			cr.PlannedEnd = &end
		}
		return &mutation{
			action: audit.ActionChangeScheduled,
			details: map[string]any{
				"planned_start": plannedStart.UTC().Format(time.RFC3339),
			},
		}, nil
	})
}

// Start begins implementation. Only a privileged actor or the assigned
// implementer may start the work.
func (s *Service) Start(ctx context.Context, changeID id.ChangeID, actorID id.UserID, privileged bool) (*models.ChangeRequest, error) {
	return s.mutate(ctx, changeID, actorID, "start", func(ctx context.Context, cr *models.ChangeRequest) (*mutation, error) {
		if cr.Status != models.StatusApproved && cr.Status != models.StatusScheduled {
			return nil, dErrors.Newf(dErrors.CodeInvalidTransition,
				"implementation can only start from %s or %s, current status is %s",
				models.StatusApproved, models.StatusScheduled, cr.Status)
		}
		if !privileged && actorID != cr.AssigneeID {
			return nil, dErrors.New(dErrors.CodeForbidden, "only the assignee or a privileged user may start implementation")
		}
		if err := requireTransition(cr, models.StatusInImplementation); err != nil {
			return nil, err
		}
		now := requestcontext.Now(ctx)
		cr.ActualStart = &now
		return &mutation{action: audit.ActionChangeStarted}, nil
	})
}

// Complete finishes implementation. Same actor rule as Start.
func (s *Service) Complete(ctx context.Context, changeID id.ChangeID, actorID id.UserID, privileged bool) (*models.ChangeRequest, error) {
	return s.mutate(ctx, changeID, actorID, "complete", func(ctx context.Context, cr *models.ChangeRequest) (*mutation, error) {
		if cr.Status != models.StatusInImplementation {
			return nil, dErrors.Newf(dErrors.CodeInvalidTransition,
				"only changes in %s can be completed, current status is %s",
				models.StatusInImplementation, cr.Status)
		}
		if !privileged && actorID != cr.AssigneeID {
			return nil, dErrors.New(dErrors.CodeForbidden, "only the assignee or a privileged user may complete implementation")
		}
		if err := requireTransition(cr, models.StatusCompleted); err != nil {
			return nil, err
		}
		now := requestcontext.Now(ctx)
		cr.ActualEnd = &now
		return &mutation{action: audit.ActionChangeCompleted}, nil
	})
}

// Close archives a completed change.
func (s *Service) Close(ctx context.Context, changeID id.ChangeID, actorID id.UserID) (*models.ChangeRequest, error) {
	return s.mutate(ctx, changeID, actorID, "close", func(_ context.Context, cr *models.ChangeRequest) (*mutation, error) {
		if err := requireTransition(cr, models.StatusClosed); err != nil {
			return nil, err
		}
		return &mutation{action: audit.ActionChangeClosed}, nil
	})
}

// Cancel abandons a change from any status the lifecycle table allows
// (everything except Closed and an earlier Cancelled).
func (s *Service) Cancel(ctx context.Context, changeID id.ChangeID, actorID id.UserID, reason string) (*models.ChangeRequest, error) {
	return s.mutate(ctx, changeID, actorID, "cancel", func(_ context.Context, cr *models.ChangeRequest) (*mutation, error) {
		if err := requireTransition(cr, models.StatusCancelled); err != nil {
			return nil, err
		}
		return &mutation{action: audit.ActionChangeCancelled, reason: reason}, nil
	})
}

// SoftDelete hides the change from every workflow operation without
// removing it. Status is left untouched so a restore resumes exactly where
// the change stopped.
func (s *Service) SoftDelete(ctx context.Context, changeID id.ChangeID, actorID id.UserID, reason string) (*models.ChangeRequest, error) {
	return s.mutate(ctx, changeID, actorID, "soft_delete", func(ctx context.Context, cr *models.ChangeRequest) (*mutation, error) {
		now := requestcontext.Now(ctx)
		cr.DeletedAt = &now
		cr.DeletedBy = actorID
		cr.DeleteReason = reason
		return &mutation{action: audit.ActionChangeDeleted, reason: reason}, nil
	})
}

// Restore reverses a soft deletion. Privileged actors only; the change
// resumes in the status it was deleted in.
func (s *Service) Restore(ctx context.Context, changeID id.ChangeID, actorID id.UserID, privileged bool) (*models.ChangeRequest, error) {
	ctx, span := s.tracer.Start(ctx, "change.restore")
	defer span.End()

	if !privileged {
		return nil, dErrors.New(dErrors.CodeForbidden, "only a privileged user may restore a deleted change request")
	}

	var result *models.ChangeRequest
	err := s.tx.RunInTx(ctx, changeID, func(ctx context.Context) error {
		cr, err := s.store.FindByID(ctx, changeID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "change request not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load change request")
		}
		if !cr.IsDeleted() {
			return dErrors.New(dErrors.CodeValidation, "change request is not deleted")
		}

		cr.DeletedAt = nil
		cr.DeletedBy = id.UserID{}
		cr.DeleteReason = ""
		now := requestcontext.Now(ctx)
		cr.UpdatedAt = now
		cr.UpdatedBy = actorID

		if err := s.store.Update(ctx, cr); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist change request")
		}
		if err := s.recorder.Record(ctx, s.buildEvent(cr, actorID, cr.Status, &mutation{action: audit.ActionChangeRestored})); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
		}
		result = cr
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// dedupeApprovers drops nil and duplicate ids, preserving first occurrence.
func dedupeApprovers(approverIDs []id.UserID) []id.UserID {
	seen := make(map[id.UserID]struct{}, len(approverIDs))
	out := make([]id.UserID, 0, len(approverIDs))
	for _, approverID := range approverIDs {
		if approverID.IsNil() {
			continue
		}
		if _, ok := seen[approverID]; ok {
			continue
		}
		seen[approverID] = struct{}{}
		out = append(out, approverID)
	}
	return out
}
