package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"changeflow/internal/change/models"
	id "changeflow/pkg/domain"
	"changeflow/pkg/platform/sentinel"
)

func newChange(number int64) *models.ChangeRequest {
	now := time.Now()
	return &models.ChangeRequest{
		ID:        id.NewChangeID(),
		Number:    number,
		Title:     "Test change",
		Status:    models.StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCreateAndFind(t *testing.T) {
	ctx := context.Background()
	store := New()
	cr := newChange(1)

	require.NoError(t, store.Create(ctx, cr))
	assert.Equal(t, int64(1), cr.Version)

	found, err := store.FindByID(ctx, cr.ID)
	require.NoError(t, err)
	assert.Equal(t, cr.ID, found.ID)

	assert.ErrorIs(t, store.Create(ctx, cr), sentinel.ErrDuplicate)

	_, err = store.FindByID(ctx, id.NewChangeID())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestFindReturnsSnapshot(t *testing.T) {
	ctx := context.Background()
	store := New()
	cr := newChange(1)
	cr.AssignApprovers([]id.UserID{id.NewUserID()}, time.Now())
	require.NoError(t, store.Create(ctx, cr))

	first, err := store.FindByID(ctx, cr.ID)
	require.NoError(t, err)
	first.Title = "mutated"
	first.Approvers[0].State = models.DecisionApproved

	second, err := store.FindByID(ctx, cr.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test change", second.Title)
	assert.Equal(t, models.DecisionPending, second.Approvers[0].State)
}

func TestUpdateVersionDiscipline(t *testing.T) {
	ctx := context.Background()
	store := New()
	cr := newChange(1)
	require.NoError(t, store.Create(ctx, cr))

	fresh, err := store.FindByID(ctx, cr.ID)
	require.NoError(t, err)
	stale, err := store.FindByID(ctx, cr.ID)
	require.NoError(t, err)

	fresh.Title = "first writer"
	require.NoError(t, store.Update(ctx, fresh))
	assert.Equal(t, int64(2), fresh.Version)

	stale.Title = "second writer"
	assert.ErrorIs(t, store.Update(ctx, stale), sentinel.ErrConflict)

	current, err := store.FindByID(ctx, cr.ID)
	require.NoError(t, err)
	assert.Equal(t, "first writer", current.Title, "the losing write must not land")
}

func TestFindIncludesSoftDeleted(t *testing.T) {
	ctx := context.Background()
	store := New()
	cr := newChange(1)
	now := time.Now()
	cr.DeletedAt = &now
	require.NoError(t, store.Create(ctx, cr))

	found, err := store.FindByID(ctx, cr.ID)
	require.NoError(t, err)
	assert.True(t, found.IsDeleted(), "the store does not hide deleted records, services do")
}

func TestListFilters(t *testing.T) {
	ctx := context.Background()
	store := New()
	requester := id.NewUserID()

	draft := newChange(1)
	draft.RequesterID = requester
	require.NoError(t, store.Create(ctx, draft))

	approved := newChange(2)
	approved.Status = models.StatusApproved
	require.NoError(t, store.Create(ctx, approved))

	deleted := newChange(3)
	now := time.Now()
	deleted.DeletedAt = &now
	require.NoError(t, store.Create(ctx, deleted))

	visible, err := store.List(ctx, models.ListFilter{})
	require.NoError(t, err)
	require.Len(t, visible, 2)
	assert.Equal(t, int64(1), visible[0].Number, "ordered by number")

	all, err := store.List(ctx, models.ListFilter{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byStatus, err := store.List(ctx, models.ListFilter{Status: models.StatusApproved})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, approved.ID, byStatus[0].ID)

	byRequester, err := store.List(ctx, models.ListFilter{RequesterID: requester.String()})
	require.NoError(t, err)
	require.Len(t, byRequester, 1)

	limited, err := store.List(ctx, models.ListFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestNextNumberMonotonic(t *testing.T) {
	ctx := context.Background()
	store := New()

	first, err := store.NextNumber(ctx)
	require.NoError(t, err)
	second, err := store.NextNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, first+1, second)
}
