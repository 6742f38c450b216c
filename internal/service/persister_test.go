package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchday/internal/model"
)

func TestPersist_OneRowPerDistinctUser(t *testing.T) {
	repo := &fakeNotificationRepo{}
	p := NewNotificationPersister(repo, nil)
	draft := model.NotificationDraft{
		Category:       model.CategoryGoal,
		Title:          "Goal!",
		Message:        "Arsenal 1-0 Chelsea",
		Related:        &model.RelatedEntity{Type: model.EntityMatch, ID: 42},
		NavigationData: model.NavigationData{Screen: model.ScreenMatchDetail, Params: map[string]any{"matchId": int64(42)}},
	}

	n, err := p.Persist(context.Background(), []int64{3, 1, 3, 2, 1}, draft)

	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 1, repo.insertCalls, "one batched insert, not one per user")
	require.Len(t, repo.rows, 3)
	for _, row := range repo.rows {
		assert.Equal(t, "GOAL", row.Type)
		assert.Equal(t, draft.Title, row.Title)
		assert.Equal(t, draft.Message, row.Message)
		assert.Equal(t, draft.NavigationData, row.NavigationData)
		assert.Equal(t, "MATCH", *row.RelatedEntityType)
		assert.Equal(t, int64(42), *row.RelatedEntityID)
	}
}

func TestPersist_NoUsers(t *testing.T) {
	repo := &fakeNotificationRepo{}
	p := NewNotificationPersister(repo, nil)

	n, err := p.Persist(context.Background(), nil, model.NotificationDraft{Title: "t", Message: "m"})

	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 0, repo.insertCalls)
}

func TestPersist_FailureIsPersistenceError(t *testing.T) {
	repo := &fakeNotificationRepo{insertErr: errStoreDown}
	p := NewNotificationPersister(repo, nil)

	_, err := p.Persist(context.Background(), []int64{1}, model.NotificationDraft{Title: "t", Message: "m"})

	assert.ErrorIs(t, err, model.ErrPersistence)
	assert.ErrorIs(t, err, errStoreDown)
	assert.Empty(t, repo.rows)
}

func TestPersist_RequiresContent(t *testing.T) {
	repo := &fakeNotificationRepo{}
	p := NewNotificationPersister(repo, nil)

	_, err := p.Persist(context.Background(), []int64{1}, model.NotificationDraft{Title: " ", Message: "m"})

	assert.ErrorIs(t, err, model.ErrValidation)
	assert.Equal(t, 0, repo.insertCalls)
}

func TestRegistry_TokensForUsers(t *testing.T) {
	repo := &fakeTokenRepo{}
	repo.add(1, "tok-a", "tok-b")
	repo.add(2, "tok-a")
	r := NewDeviceTokenRegistry(repo)

	byUser, err := r.TokensForUsers(context.Background(), []int64{1, 2, 3})

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tok-a", "tok-b"}, byUser[1])
	assert.Equal(t, []string{"tok-a"}, byUser[2])
	assert.NotContains(t, byUser, int64(3))

	tokens, err := r.TokensFor(context.Background(), 3)
	require.NoError(t, err)
	assert.Empty(t, tokens, "zero tokens is a valid result")
}

func TestRegistry_PruneRemovesEveryOwner(t *testing.T) {
	repo := &fakeTokenRepo{}
	repo.add(1, "tok-shared", "tok-keep")
	repo.add(2, "tok-shared")
	r := NewDeviceTokenRegistry(repo)

	n, err := r.Prune(context.Background(), "tok-shared")

	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, 1, repo.count())
}

func TestRegistry_DevicesNeverNil(t *testing.T) {
	r := NewDeviceTokenRegistry(&fakeTokenRepo{})

	devices, err := r.Devices(context.Background(), 1)

	require.NoError(t, err)
	assert.NotNil(t, devices)
	assert.Empty(t, devices)
}
