package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artasyaskar/puzzleverse-mern/internal/domain"
)

func TestNewObjectID(t *testing.T) {
	seen := map[string]bool{}
	for range 100 {
		id := NewObjectID()
		require.True(t, IsObjectID(id), id)
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}

	assert.False(t, IsObjectID("not-a-valid-objectid"))
	assert.True(t, IsObjectID("64b7c1f5e13f5f2a9f0c1234"))
}

func TestTaskRepository_ListNewestFirstAndFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository()

	first := &domain.Task{Title: "Write docs", Status: domain.StatusPending, Labels: []string{"docs"}}
	second := &domain.Task{Title: "Ship release", Status: domain.StatusCompleted}
	archived := &domain.Task{Title: "Old docs", Status: domain.StatusPending, Archived: true}
	require.NoError(t, repo.Create(ctx, first, second, archived))

	tasks, err := repo.List(ctx, TaskFilter{})
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, second.ID, tasks[0].ID)
	assert.Equal(t, first.ID, tasks[1].ID)

	tasks, err = repo.List(ctx, TaskFilter{Query: "DOCS", IncludeArchived: true})
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	tasks, err = repo.List(ctx, TaskFilter{Label: "docs"})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, first.ID, tasks[0].ID)

	tasks, err = repo.List(ctx, TaskFilter{Status: domain.StatusCompleted})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, second.ID, tasks[0].ID)
}

func TestTaskRepository_UpdateIsAtomic(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository()

	task := &domain.Task{Title: "Draft", Status: domain.StatusPending}
	require.NoError(t, repo.Create(ctx, task))

	boom := errors.New("boom")
	_, err := repo.Update(ctx, task.ID, func(t *domain.Task) error {
		t.Title = "changed"
		return boom
	})
	assert.ErrorIs(t, err, boom)

	stored, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Draft", stored.Title)

	updated, err := repo.Update(ctx, task.ID, func(t *domain.Task) error {
		t.Title = "Final"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Final", updated.Title)
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

	_, err = repo.Update(ctx, "64b7c1f5e13f5f2a9f0c1234", func(*domain.Task) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTaskRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository()

	task := &domain.Task{Title: "Temp"}
	require.NoError(t, repo.Create(ctx, task))
	require.NoError(t, repo.Delete(ctx, task.ID))

	_, err := repo.GetByID(ctx, task.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, task.ID), ErrNotFound)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestUserRepository_EmailIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	user := &domain.User{Email: "Mixed@Example.com", PasswordHash: "x"}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotEmpty(t, user.ID)

	found, err := repo.GetByEmail(ctx, "mixed@example.COM")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.Equal(t, "Mixed@Example.com", found.Email)

	err = repo.Create(ctx, &domain.User{Email: "MIXED@example.com"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestTokenRepository_TrimUserEvictsOldest(t *testing.T) {
	ctx := context.Background()
	repo := NewTokenRepository()

	for _, hash := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Create(ctx, &domain.RefreshToken{UserID: "u1", TokenHash: hash}))
	}
	require.NoError(t, repo.Create(ctx, &domain.RefreshToken{UserID: "u2", TokenHash: "z"}))

	require.NoError(t, repo.TrimUser(ctx, "u1", 2))

	_, err := repo.GetByTokenHash(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)

	tokens, err := repo.GetByUserID(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, "b", tokens[0].TokenHash)

	require.NoError(t, repo.DeleteByTokenHash(ctx, "b"))
	assert.ErrorIs(t, repo.DeleteByTokenHash(ctx, "b"), ErrNotFound)

	tokens, err = repo.GetByUserID(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, tokens, 1)
}
