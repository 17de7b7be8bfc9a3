package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"diarydesk/internal/db"
	"diarydesk/internal/repository"
)

func newSQLiteStore(t *testing.T) *repository.Store {
	t.Helper()
	gdb, err := db.NewSQLite(":memory:")
	require.NoError(t, err)
	store, err := repository.NewGormStore(gdb, "sqlite")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return store
}
