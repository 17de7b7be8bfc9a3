package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diarydesk/internal/config"
	"diarydesk/internal/db"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("sqlite", func(t *testing.T) {
		store, err := Open(ctx, config.Storage{
			Driver:     config.DriverSQLite,
			SQLitePath: filepath.Join(t.TempDir(), "notes.db"),
		})
		require.NoError(t, err)
		defer store.Close(ctx)

		assert.Equal(t, config.DriverSQLite, store.Backend)
		assert.NoError(t, store.Ping(ctx))
	})

	t.Run("unknown driver", func(t *testing.T) {
		store, err := Open(ctx, config.Storage{Driver: "postgres"})
		assert.ErrorIs(t, err, config.ErrUnknownDriver)
		assert.Nil(t, store)
	})
}

func TestOpenGormStore_ClosesOnMigrationFailure(t *testing.T) {
	gdb, err := db.NewSQLite(filepath.Join(t.TempDir(), "notes.db"))
	require.NoError(t, err)
	// A view occupying the notes table name makes AutoMigrate fail.
	require.NoError(t, gdb.Exec("CREATE VIEW notes AS SELECT 1 AS id").Error)

	store, err := openGormStore(gdb, config.DriverSQLite)
	require.Error(t, err)
	assert.Nil(t, store)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	assert.Error(t, sqlDB.Ping())
}
