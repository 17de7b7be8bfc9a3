package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diarydesk/internal/model"
)

func TestUserRepository_CRUD(t *testing.T) {
	store := newTestStore(t)
	repo := store.Users
	ctx := context.Background()

	user := &model.User{
		Name:         "Alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		Preferences:  model.DefaultPreferences(),
	}
	require.NoError(t, repo.Create(ctx, user))
	require.NotEmpty(t, user.ID)

	dup := &model.User{Name: "Other", Email: "alice@example.com", PasswordHash: "x"}
	assert.ErrorIs(t, repo.Create(ctx, dup), ErrDuplicateKey)

	byEmail, err := repo.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.Equal(t, model.ThemeLight, byEmail.Preferences.Theme)

	bio := "writer"
	prefs := model.Preferences{Theme: model.ThemeDark}
	updated, err := repo.Update(ctx, user.ID, UserUpdate{Bio: &bio, Preferences: &prefs, UpdatedAt: time.Now()})
	require.NoError(t, err)
	assert.Equal(t, "Alice", updated.Name)
	assert.Equal(t, "writer", updated.Bio)
	assert.Equal(t, model.ThemeDark, updated.Preferences.Theme)
	assert.False(t, updated.Preferences.Notifications)

	require.NoError(t, repo.UpdatePassword(ctx, user.ID, "new-hash", time.Now()))
	reloaded, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", reloaded.PasswordHash)

	require.NoError(t, repo.Delete(ctx, user.ID))
	_, err = repo.FindByID(ctx, user.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, user.ID), ErrNotFound)
	assert.ErrorIs(t, repo.UpdatePassword(ctx, user.ID, "h", time.Now()), ErrNotFound)
}
