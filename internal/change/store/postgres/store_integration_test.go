//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"

	"changeflow/internal/change/models"
	changepostgres "changeflow/internal/change/store/postgres"
	id "changeflow/pkg/domain"
	"changeflow/pkg/platform/sentinel"
	"changeflow/pkg/testutil/containers"
)

type StoreIntegrationSuite struct {
	suite.Suite
	ctx      context.Context
	postgres *containers.PostgresContainer
	store    *changepostgres.Store
	tx       *changepostgres.Tx
}

func TestStoreIntegrationSuite(t *testing.T) {
	suite.Run(t, new(StoreIntegrationSuite))
}

func (s *StoreIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = changepostgres.New(s.postgres.DB)
	s.tx = changepostgres.NewTx(s.postgres.DB)
}

func (s *StoreIntegrationSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "change_requests"))
}

func (s *StoreIntegrationSuite) newChange(number int64) *models.ChangeRequest {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.ChangeRequest{
		ID:          id.NewChangeID(),
		Number:      number,
		Title:       "Integration change",
		Description: "Round-trip the aggregate",
		Status:      models.StatusDraft,
		RequesterID: id.NewUserID(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (s *StoreIntegrationSuite) TestAggregateRoundTrip() {
	cr := s.newChange(1)
	approverA := id.NewUserID()
	approverB := id.NewUserID()
	cr.AssignApprovers([]id.UserID{approverA, approverB}, time.Now().UTC().Truncate(time.Microsecond))
	cr.Strategy = models.StrategyMajority
	cr.Status = models.StatusPendingApproval

	s.Require().NoError(s.store.Create(s.ctx, cr))

	found, err := s.store.FindByID(s.ctx, cr.ID)
	s.Require().NoError(err)
	s.Equal(cr.Title, found.Title)
	s.Equal(models.StatusPendingApproval, found.Status)
	s.Equal(models.StrategyMajority, found.Strategy)
	s.Equal(cr.RequesterID, found.RequesterID)
	s.Require().Len(found.Approvers, 2)
	s.Equal(approverA, found.Approvers[0].ApproverID, "approver order survives the round trip")
	s.Equal(approverB, found.Approvers[1].ApproverID)
	s.Equal(models.DecisionPending, found.Approvers[0].State)

	_, err = s.store.FindByID(s.ctx, id.NewChangeID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *StoreIntegrationSuite) TestDecisionRoundTrip() {
	cr := s.newChange(1)
	approver := id.NewUserID()
	cr.AssignApprovers([]id.UserID{approver}, time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(s.store.Create(s.ctx, cr))

	decidedAt := time.Now().UTC().Truncate(time.Microsecond)
	s.Require().True(cr.RecordDecision(approver, models.DecisionApproved, "lgtm", decidedAt))
	s.Require().NoError(s.store.Update(s.ctx, cr))

	found, err := s.store.FindByID(s.ctx, cr.ID)
	s.Require().NoError(err)
	s.Require().Len(found.Approvers, 1)
	s.Equal(models.DecisionApproved, found.Approvers[0].State)
	s.Equal("lgtm", found.Approvers[0].Comment)
	s.Require().NotNil(found.Approvers[0].DecidedAt)
	s.True(decidedAt.Equal(*found.Approvers[0].DecidedAt))
}

func (s *StoreIntegrationSuite) TestUpdateVersionConflict() {
	cr := s.newChange(1)
	s.Require().NoError(s.store.Create(s.ctx, cr))

	fresh, err := s.store.FindByID(s.ctx, cr.ID)
	s.Require().NoError(err)
	stale, err := s.store.FindByID(s.ctx, cr.ID)
	s.Require().NoError(err)

	fresh.Title = "first writer"
	s.Require().NoError(s.store.Update(s.ctx, fresh))

	stale.Title = "second writer"
	s.ErrorIs(s.store.Update(s.ctx, stale), sentinel.ErrConflict)

	current, err := s.store.FindByID(s.ctx, cr.ID)
	s.Require().NoError(err)
	s.Equal("first writer", current.Title)
	s.Equal(int64(2), current.Version)
}

func (s *StoreIntegrationSuite) TestListFilters() {
	requester := id.NewUserID()

	draft := s.newChange(1)
	draft.RequesterID = requester
	s.Require().NoError(s.store.Create(s.ctx, draft))

	approved := s.newChange(2)
	approved.Status = models.StatusApproved
	s.Require().NoError(s.store.Create(s.ctx, approved))

	deleted := s.newChange(3)
	now := time.Now().UTC().Truncate(time.Microsecond)
	deleted.DeletedAt = &now
	s.Require().NoError(s.store.Create(s.ctx, deleted))

	visible, err := s.store.List(s.ctx, models.ListFilter{})
	s.Require().NoError(err)
	s.Require().Len(visible, 2)
	s.Equal(int64(1), visible[0].Number)

	all, err := s.store.List(s.ctx, models.ListFilter{IncludeDeleted: true})
	s.Require().NoError(err)
	s.Len(all, 3)

	byStatus, err := s.store.List(s.ctx, models.ListFilter{Status: models.StatusApproved})
	s.Require().NoError(err)
	s.Require().Len(byStatus, 1)
	s.Equal(approved.ID, byStatus[0].ID)

	byRequester, err := s.store.List(s.ctx, models.ListFilter{RequesterID: requester.String()})
	s.Require().NoError(err)
	s.Len(byRequester, 1)

	limited, err := s.store.List(s.ctx, models.ListFilter{Limit: 1})
	s.Require().NoError(err)
	s.Len(limited, 1)
}

func (s *StoreIntegrationSuite) TestNextNumberMonotonicAcrossCalls() {
	first, err := s.store.NextNumber(s.ctx)
	s.Require().NoError(err)
	second, err := s.store.NextNumber(s.ctx)
	s.Require().NoError(err)
	s.Equal(first+1, second, "the sequence never reuses numbers")
}

// Inside a transaction FindByID locks the change row, so concurrent
// read-modify-write cycles serialize instead of tripping the version check.
func (s *StoreIntegrationSuite) TestTransactionsSerializeWrites() {
	cr := s.newChange(1)
	approvers := []id.UserID{id.NewUserID(), id.NewUserID(), id.NewUserID(), id.NewUserID()}
	cr.AssignApprovers(approvers, time.Now().UTC().Truncate(time.Microsecond))
	cr.Status = models.StatusPendingApproval
	s.Require().NoError(s.store.Create(s.ctx, cr))

	var g errgroup.Group
	for _, approver := range approvers {
		g.Go(func() error {
			return s.tx.RunInTx(s.ctx, cr.ID, func(ctx context.Context) error {
				loaded, err := s.store.FindByID(ctx, cr.ID)
				if err != nil {
					return err
				}
				loaded.RecordDecision(approver, models.DecisionApproved, "", time.Now().UTC())
				return s.store.Update(ctx, loaded)
			})
		})
	}
	s.Require().NoError(g.Wait())

	found, err := s.store.FindByID(s.ctx, cr.ID)
	s.Require().NoError(err)
	s.Equal(int64(5), found.Version)
	for _, d := range found.Approvers {
		s.Equal(models.DecisionApproved, d.State, "no decision may be lost to a concurrent writer")
	}
}
