package service_test

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"changeflow/internal/audit"
	"changeflow/internal/change/models"
	"changeflow/internal/change/service"
	"changeflow/internal/change/service/mocks"
	changememory "changeflow/internal/change/store/memory"
	id "changeflow/pkg/domain"
	dErrors "changeflow/pkg/domain-errors"
	"changeflow/pkg/requestcontext"
)

// DraftSuite exercises the intake path with a mocked reference lookup so the
// resolution contract is pinned independently of the seed data.
type DraftSuite struct {
	suite.Suite
	ctx       context.Context
	ctrl      *gomock.Controller
	refdata   *mocks.MockRefLookup
	store     *changememory.Store
	service   *service.Service
	requester id.UserID
}

func TestDraftSuite(t *testing.T) {
	suite.Run(t, new(DraftSuite))
}

func (s *DraftSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	s.ctrl = gomock.NewController(s.T())
	s.refdata = mocks.NewMockRefLookup(s.ctrl)
	s.store = changememory.New()
	s.requester = id.NewUserID()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = service.New(
		s.store,
		audit.NewRecorder(audit.NewInMemoryStore()),
		s.refdata,
		fixedResolver{userID: s.requester},
		service.WithLogger(logger),
	)
}

func (s *DraftSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *DraftSuite) TestCreateDraftResolvesReferences() {
	s.refdata.EXPECT().ResolveType(gomock.Any(), "Emergency").Return("emergency", nil)
	s.refdata.EXPECT().ResolvePriority(gomock.Any(), "HIGH").Return("high", nil)
	s.refdata.EXPECT().ResolveRisk(gomock.Any(), "unknown-level").Return("medium", nil)
	s.refdata.EXPECT().ResolveImpact(gomock.Any(), "").Return("", nil)

	cr, err := s.service.CreateDraft(s.ctx, models.DraftPayload{
		Title:    "  Patch routers  ",
		Type:     "Emergency",
		Priority: "HIGH",
		Risk:     "unknown-level",
	}, s.requester)
	s.Require().NoError(err)

	s.Equal("Patch routers", cr.Title, "titles are trimmed")
	s.Equal("emergency", cr.TypeID)
	s.Equal("high", cr.PriorityID)
	s.Equal("medium", cr.RiskID, "unresolvable references fall back")
	s.Empty(cr.ImpactID, "empty references stay empty")
}

func (s *DraftSuite) TestCreateDraftRejectsMalformedAssignee() {
	s.refdata.EXPECT().ResolveType(gomock.Any(), gomock.Any()).Return("", nil)
	s.refdata.EXPECT().ResolvePriority(gomock.Any(), gomock.Any()).Return("", nil)
	s.refdata.EXPECT().ResolveRisk(gomock.Any(), gomock.Any()).Return("", nil)
	s.refdata.EXPECT().ResolveImpact(gomock.Any(), gomock.Any()).Return("", nil)

	_, err := s.service.CreateDraft(s.ctx, models.DraftPayload{
		Title:      "Bad assignee",
		AssigneeID: "not-a-uuid",
	}, s.requester)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *DraftSuite) TestUpdateDraftAppliesPartialEdit() {
	s.refdata.EXPECT().ResolveType(gomock.Any(), gomock.Any()).Return("normal", nil)
	s.refdata.EXPECT().ResolvePriority(gomock.Any(), gomock.Any()).Return("", nil)
	s.refdata.EXPECT().ResolveRisk(gomock.Any(), gomock.Any()).Return("", nil)
	s.refdata.EXPECT().ResolveImpact(gomock.Any(), gomock.Any()).Return("", nil)

	cr, err := s.service.CreateDraft(s.ctx, models.DraftPayload{
		Title:       "Original title",
		Description: "Original description",
		Type:        "normal",
	}, s.requester)
	s.Require().NoError(err)

	s.refdata.EXPECT().ResolveRisk(gomock.Any(), "high").Return("high", nil)
	title := "Amended title"
	risk := "high"
	updated, err := s.service.UpdateDraft(s.ctx, cr.ID, models.DraftUpdate{
		Title: &title,
		Risk:  &risk,
	}, s.requester)
	s.Require().NoError(err)

	s.Equal("Amended title", updated.Title)
	s.Equal("high", updated.RiskID)
	s.Equal("Original description", updated.Description, "nil fields are left untouched")
}

func (s *DraftSuite) TestUpdateDraftBlockedOnceApproved() {
	now := requestcontext.Now(s.ctx)
	cr := &models.ChangeRequest{
		ID:        id.NewChangeID(),
		Number:    1,
		Title:     "Already approved",
		Status:    models.StatusApproved,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.Require().NoError(s.store.Create(s.ctx, cr))

	title := "Too late"
	_, err := s.service.UpdateDraft(s.ctx, cr.ID, models.DraftUpdate{Title: &title}, s.requester)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
}
