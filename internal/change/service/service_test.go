package service_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"

	"changeflow/internal/audit"
	"changeflow/internal/change/models"
	"changeflow/internal/change/service"
	changememory "changeflow/internal/change/store/memory"
	"changeflow/internal/refdata"
	id "changeflow/pkg/domain"
	dErrors "changeflow/pkg/domain-errors"
	"changeflow/pkg/requestcontext"
)

// fixedResolver satisfies service.RequesterResolver with a constant user.
type fixedResolver struct {
	userID id.UserID
}

func (f fixedResolver) ResolveRequester(context.Context, id.UserID) (id.UserID, error) {
	return f.userID, nil
}

type WorkflowSuite struct {
	suite.Suite
	ctx        context.Context
	now        time.Time
	store      *changememory.Store
	auditStore *audit.InMemoryStore
	service    *service.Service
	requester  id.UserID
	assignee   id.UserID
}

func TestWorkflowSuite(t *testing.T) {
	suite.Run(t, new(WorkflowSuite))
}

func (s *WorkflowSuite) SetupTest() {
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.store = changememory.New()
	s.auditStore = audit.NewInMemoryStore()
	s.requester = id.NewUserID()
	s.assignee = id.NewUserID()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = service.New(
		s.store,
		audit.NewRecorder(s.auditStore),
		refdata.NewLookup(refdata.NewSeededStore()),
		fixedResolver{userID: s.requester},
		service.WithLogger(logger),
	)
}

// completeDraft creates a draft that passes the submission completeness
// check. The "normal" type requires approval.
func (s *WorkflowSuite) completeDraft() *models.ChangeRequest {
	start := s.now.Add(24 * time.Hour)
	end := s.now.Add(26 * time.Hour)
	cr, err := s.service.CreateDraft(s.ctx, models.DraftPayload{
		Title:        "Upgrade database",
		Description:  "Upgrade postgres to 16",
		BackoutPlan:  "Restore from snapshot",
		Type:         "normal",
		Risk:         "medium",
		AssigneeID:   s.assignee.String(),
		PlannedStart: &start,
		PlannedEnd:   &end,
	}, s.requester)
	s.Require().NoError(err)
	return cr
}

func (s *WorkflowSuite) submitWith(cr *models.ChangeRequest, strategy string, approvers ...id.UserID) *models.ChangeRequest {
	updated, err := s.service.Submit(s.ctx, cr.ID, s.requester, service.SubmitParams{
		ApproverIDs: approvers,
		Strategy:    strategy,
	})
	s.Require().NoError(err)
	return updated
}

func (s *WorkflowSuite) auditTrail(changeID id.ChangeID) []audit.Event {
	events, err := s.auditStore.ListByEntity(s.ctx, "change_request", changeID.String())
	s.Require().NoError(err)
	return events
}

func (s *WorkflowSuite) TestCreateDraft() {
	cr := s.completeDraft()

	s.Equal(models.StatusDraft, cr.Status)
	s.Equal(int64(1), cr.Number)
	s.Equal("CHG-1", cr.ExternalRef())
	s.Equal(s.requester, cr.RequesterID)
	s.Equal(s.now, cr.CreatedAt)

	events := s.auditTrail(cr.ID)
	s.Require().Len(events, 1)
	s.Equal(audit.ActionChangeCreated, events[0].Action)

	second := s.completeDraft()
	s.Equal(int64(2), second.Number, "numbers are sequential and never reused")
}

func (s *WorkflowSuite) TestSubmitMissingFieldsNamed() {
	cr, err := s.service.CreateDraft(s.ctx, models.DraftPayload{Title: "Incomplete"}, s.requester)
	s.Require().NoError(err)

	_, err = s.service.Submit(s.ctx, cr.ID, s.requester, service.SubmitParams{
		ApproverIDs: []id.UserID{id.NewUserID()},
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Contains(err.Error(), "description")
	s.Contains(err.Error(), "backout_plan")

	reloaded, err := s.service.Get(s.ctx, cr.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusDraft, reloaded.Status, "failed submission must not change state")
}

func (s *WorkflowSuite) TestSubmitRequiresApprovers() {
	cr := s.completeDraft()

	_, err := s.service.Submit(s.ctx, cr.ID, s.requester, service.SubmitParams{})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Contains(err.Error(), "approver")
}

func (s *WorkflowSuite) TestSubmitDeduplicatesApprovers() {
	a, b := id.NewUserID(), id.NewUserID()
	cr := s.completeDraft()

	updated := s.submitWith(cr, "all", a, a, b)

	s.Equal(models.StatusPendingApproval, updated.Status)
	s.Require().Len(updated.Approvers, 2)
	s.Equal(a, updated.Approvers[0].ApproverID)
	s.Equal(b, updated.Approvers[1].ApproverID)
	s.Equal(s.requester, updated.SubmitterID)
	s.Require().NotNil(updated.SubmittedAt)
	s.Equal(s.now, *updated.SubmittedAt)
}

func (s *WorkflowSuite) TestSubmitSelfApprovingTypeSkipsApproval() {
	start := s.now.Add(time.Hour)
	cr, err := s.service.CreateDraft(s.ctx, models.DraftPayload{
		Title:        "Rotate log files",
		Description:  "Routine pre-approved maintenance",
		BackoutPlan:  "None needed",
		Type:         "standard",
		PlannedStart: &start,
	}, s.requester)
	s.Require().NoError(err)

	updated, err := s.service.Submit(s.ctx, cr.ID, s.requester, service.SubmitParams{})
	s.Require().NoError(err)
	s.Equal(models.StatusSubmitted, updated.Status)
	s.Empty(updated.Approvers)
}

func (s *WorkflowSuite) TestSubmitSelfApprovingTypeWithExplicitApprovalFlag() {
	start := s.now.Add(time.Hour)
	cr, err := s.service.CreateDraft(s.ctx, models.DraftPayload{
		Title:            "Rotate certificates",
		Description:      "Pre-approved but sensitive this quarter",
		BackoutPlan:      "Reinstall previous certificates",
		Type:             "standard",
		PlannedStart:     &start,
		ApprovalRequired: true,
	}, s.requester)
	s.Require().NoError(err)

	updated, err := s.service.Submit(s.ctx, cr.ID, s.requester, service.SubmitParams{
		ApproverIDs: []id.UserID{id.NewUserID()},
	})
	s.Require().NoError(err)
	s.Equal(models.StatusPendingApproval, updated.Status, "the explicit flag overrides the self-approving type")
}

func (s *WorkflowSuite) TestSubmitOnlyFromDraft() {
	cr := s.completeDraft()
	s.submitWith(cr, "any", id.NewUserID())

	_, err := s.service.Submit(s.ctx, cr.ID, s.requester, service.SubmitParams{
		ApproverIDs: []id.UserID{id.NewUserID()},
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
}

func (s *WorkflowSuite) TestAllOfTwoScenario() {
	x, y := id.NewUserID(), id.NewUserID()
	cr := s.completeDraft()
	s.submitWith(cr, "all", x, y)

	after, err := s.service.RecordDecision(s.ctx, cr.ID, x, true, "looks good")
	s.Require().NoError(err)
	s.Equal(models.StatusPendingApproval, after.Status, "one of two approvals is not enough under all")

	after, err = s.service.RecordDecision(s.ctx, cr.ID, y, true, "")
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, after.Status)
}

func (s *WorkflowSuite) TestMajorityOfThreeScenario() {
	x, y, z := id.NewUserID(), id.NewUserID(), id.NewUserID()
	cr := s.completeDraft()
	s.submitWith(cr, "majority", x, y, z)

	after, err := s.service.RecordDecision(s.ctx, cr.ID, x, true, "")
	s.Require().NoError(err)
	s.Equal(models.StatusPendingApproval, after.Status, "one of three is not a majority")

	after, err = s.service.RecordDecision(s.ctx, cr.ID, z, true, "")
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, after.Status, "two of three is a majority")
}

func (s *WorkflowSuite) TestAnyStrategyApprovesOnFirstApproval() {
	x, y := id.NewUserID(), id.NewUserID()
	cr := s.completeDraft()
	s.submitWith(cr, "any", x, y)

	after, err := s.service.RecordDecision(s.ctx, cr.ID, y, true, "")
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, after.Status)
}

func (s *WorkflowSuite) TestSingleRejectionIsTerminal() {
	x, y, z := id.NewUserID(), id.NewUserID(), id.NewUserID()
	cr := s.completeDraft()
	s.submitWith(cr, "majority", x, y, z)

	_, err := s.service.RecordDecision(s.ctx, cr.ID, x, true, "")
	s.Require().NoError(err)

	after, err := s.service.RecordDecision(s.ctx, cr.ID, y, false, "too risky")
	s.Require().NoError(err)
	s.Equal(models.StatusRejected, after.Status)

	_, err = s.service.RecordDecision(s.ctx, cr.ID, z, true, "")
	s.Require().Error(err, "decisions are closed once rejected")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
}

func (s *WorkflowSuite) TestRecordDecisionByUnassignedActorIsNotFound() {
	cr := s.completeDraft()
	s.submitWith(cr, "all", id.NewUserID())

	_, err := s.service.RecordDecision(s.ctx, cr.ID, id.NewUserID(), true, "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound),
		"an unassigned actor must not learn the change exists")
}

func (s *WorkflowSuite) TestRecordDecisionIdempotentByActor() {
	x, y := id.NewUserID(), id.NewUserID()
	cr := s.completeDraft()
	s.submitWith(cr, "all", x, y)

	_, err := s.service.RecordDecision(s.ctx, cr.ID, x, true, "first")
	s.Require().NoError(err)
	after, err := s.service.RecordDecision(s.ctx, cr.ID, x, true, "second")
	s.Require().NoError(err)

	s.Require().Len(after.Approvers, 2)
	s.Equal("second", after.Decision(x).Comment, "re-deciding updates the same record")
	s.Equal(models.StatusPendingApproval, after.Status)
}

func (s *WorkflowSuite) TestConcurrentDecisionsUnderAll() {
	const approverCount = 8
	approvers := make([]id.UserID, approverCount)
	for i := range approvers {
		approvers[i] = id.NewUserID()
	}
	cr := s.completeDraft()
	s.submitWith(cr, "all", approvers...)

	g, gctx := errgroup.WithContext(s.ctx)
	for _, approver := range approvers {
		g.Go(func() error {
			_, err := s.service.RecordDecision(gctx, cr.ID, approver, true, "")
			return err
		})
	}
	s.Require().NoError(g.Wait())

	final, err := s.service.Get(s.ctx, cr.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, final.Status)
	s.Require().Len(final.Approvers, approverCount)
	for _, d := range final.Approvers {
		s.Equal(models.DecisionApproved, d.State, "no decision may be lost to a race")
	}
}

func (s *WorkflowSuite) TestRevertToDraft() {
	cr := s.completeDraft()
	s.submitWith(cr, "all", id.NewUserID())

	after, err := s.service.RevertToDraft(s.ctx, cr.ID, s.requester, "needs more detail")
	s.Require().NoError(err)
	s.Equal(models.StatusDraft, after.Status)

	// A fresh submission replaces the decision set.
	resubmitted := s.submitWith(after, "all", id.NewUserID(), id.NewUserID())
	s.Len(resubmitted.Approvers, 2)
}

func (s *WorkflowSuite) TestImplementationPath() {
	x := id.NewUserID()
	cr := s.completeDraft()
	s.submitWith(cr, "any", x)
	_, err := s.service.RecordDecision(s.ctx, cr.ID, x, true, "")
	s.Require().NoError(err)

	scheduled, err := s.service.Schedule(s.ctx, cr.ID, s.requester, s.now.Add(48*time.Hour), s.now.Add(50*time.Hour))
	s.Require().NoError(err)
	s.Equal(models.StatusScheduled, scheduled.Status)

	started, err := s.service.Start(s.ctx, cr.ID, s.assignee, false)
	s.Require().NoError(err)
	s.Equal(models.StatusInImplementation, started.Status)
	s.Require().NotNil(started.ActualStart)

	completed, err := s.service.Complete(s.ctx, cr.ID, s.assignee, false)
	s.Require().NoError(err)
	s.Equal(models.StatusCompleted, completed.Status)
	s.Require().NotNil(completed.ActualEnd)

	closed, err := s.service.Close(s.ctx, cr.ID, s.requester)
	s.Require().NoError(err)
	s.Equal(models.StatusClosed, closed.Status)

	_, err = s.service.Cancel(s.ctx, cr.ID, s.requester, "")
	s.Require().Error(err, "closed is terminal")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
}

func (s *WorkflowSuite) TestStartRequiresAssigneeOrPrivilege() {
	x := id.NewUserID()
	cr := s.completeDraft()
	s.submitWith(cr, "any", x)
	_, err := s.service.RecordDecision(s.ctx, cr.ID, x, true, "")
	s.Require().NoError(err)

	stranger := id.NewUserID()
	_, err = s.service.Start(s.ctx, cr.ID, stranger, false)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	_, err = s.service.Start(s.ctx, cr.ID, stranger, true)
	s.Require().NoError(err, "a privileged actor may start any change")
}

func (s *WorkflowSuite) TestCompleteRequiresAssigneeOrPrivilege() {
	x := id.NewUserID()
	cr := s.completeDraft()
	s.submitWith(cr, "any", x)
	_, err := s.service.RecordDecision(s.ctx, cr.ID, x, true, "")
	s.Require().NoError(err)
	_, err = s.service.Start(s.ctx, cr.ID, s.assignee, false)
	s.Require().NoError(err)

	_, err = s.service.Complete(s.ctx, cr.ID, id.NewUserID(), false)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *WorkflowSuite) TestCancelFromEveryNonTerminalStatus() {
	cr := s.completeDraft()

	after, err := s.service.Cancel(s.ctx, cr.ID, s.requester, "no longer needed")
	s.Require().NoError(err)
	s.Equal(models.StatusCancelled, after.Status)

	_, err = s.service.Cancel(s.ctx, cr.ID, s.requester, "again")
	s.Require().Error(err, "cancelled is terminal")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
}

func (s *WorkflowSuite) TestSoftDeleteFinality() {
	x := id.NewUserID()
	cr := s.completeDraft()
	s.submitWith(cr, "all", x)

	deleted, err := s.service.SoftDelete(s.ctx, cr.ID, s.requester, "filed in error")
	s.Require().NoError(err)
	s.Require().NotNil(deleted.DeletedAt)
	s.Equal(models.StatusPendingApproval, deleted.Status, "deletion does not change status")

	_, err = s.service.Get(s.ctx, cr.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.service.RecordDecision(s.ctx, cr.ID, x, true, "")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.service.Cancel(s.ctx, cr.ID, s.requester, "")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.service.SoftDelete(s.ctx, cr.ID, s.requester, "")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *WorkflowSuite) TestRestoreResumesWhereDeleted() {
	x := id.NewUserID()
	cr := s.completeDraft()
	s.submitWith(cr, "all", x)
	_, err := s.service.SoftDelete(s.ctx, cr.ID, s.requester, "oops")
	s.Require().NoError(err)

	_, err = s.service.Restore(s.ctx, cr.ID, s.requester, false)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	restored, err := s.service.Restore(s.ctx, cr.ID, s.requester, true)
	s.Require().NoError(err)
	s.Nil(restored.DeletedAt)
	s.Equal(models.StatusPendingApproval, restored.Status)

	after, err := s.service.RecordDecision(s.ctx, cr.ID, x, true, "")
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, after.Status, "the workflow resumes where it stopped")
}

func (s *WorkflowSuite) TestRestoreOfLiveChangeFails() {
	cr := s.completeDraft()
	_, err := s.service.Restore(s.ctx, cr.ID, s.requester, true)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *WorkflowSuite) TestUnknownChangeIsNotFound() {
	_, err := s.service.Get(s.ctx, id.NewChangeID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.service.Cancel(s.ctx, id.NewChangeID(), s.requester, "")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *WorkflowSuite) TestEveryMutationAppendsOneAuditEvent() {
	x := id.NewUserID()
	cr := s.completeDraft()
	s.submitWith(cr, "any", x)
	_, err := s.service.RecordDecision(s.ctx, cr.ID, x, true, "")
	s.Require().NoError(err)

	events := s.auditTrail(cr.ID)
	s.Require().Len(events, 3)
	s.Equal(audit.ActionChangeCreated, events[0].Action)
	s.Equal(audit.ActionChangeSubmitted, events[1].Action)
	s.Equal(audit.ActionDecisionRecorded, events[2].Action)
	for _, e := range events {
		s.Equal(cr.ID.String(), e.EntityID)
		s.Equal("CHG-1", e.EntityRef)
	}
}

func (s *WorkflowSuite) TestAuditTrailSurvivesSoftDelete() {
	cr := s.completeDraft()
	_, err := s.service.SoftDelete(s.ctx, cr.ID, s.requester, "mistake")
	s.Require().NoError(err)

	events := s.auditTrail(cr.ID)
	s.Require().Len(events, 2)
	s.Equal(audit.ActionChangeDeleted, events[1].Action)
	s.Equal("mistake", events[1].Reason)
}

func (s *WorkflowSuite) TestListFiltersStatusAndDeleted() {
	first := s.completeDraft()
	second := s.completeDraft()
	s.submitWith(second, "any", id.NewUserID())
	_, err := s.service.SoftDelete(s.ctx, first.ID, s.requester, "")
	s.Require().NoError(err)

	visible, err := s.service.List(s.ctx, models.ListFilter{})
	s.Require().NoError(err)
	s.Require().Len(visible, 1)
	s.Equal(second.ID, visible[0].ID)

	pending, err := s.service.List(s.ctx, models.ListFilter{Status: models.StatusPendingApproval})
	s.Require().NoError(err)
	s.Len(pending, 1)

	all, err := s.service.List(s.ctx, models.ListFilter{IncludeDeleted: true})
	s.Require().NoError(err)
	s.Len(all, 2)
}
