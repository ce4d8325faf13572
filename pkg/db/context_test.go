// pkg/db/context_test.go
package db_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"membership-service/pkg/db"
	"membership-service/pkg/db/dbtest"
)

func TestDbContext_CloseWithoutCommitRollsBack(t *testing.T) {
	f, _ := dbtest.NewFactory(t)
	ctx := context.Background()

	dbc, err := f.CreateContext(ctx, sql.LevelDefault)
	require.NoError(t, err)
	insertLocation(t, dbc.Session(), "Abandoned", "")
	require.NoError(t, dbc.Close())

	assert.Equal(t, 0, countLocations(t, f, "Abandoned"))
	assert.True(t, dbc.Session().Closed())
}

func TestDbContext_CommitTwice(t *testing.T) {
	f, _ := dbtest.NewFactory(t)
	ctx := context.Background()

	dbc, err := f.CreateContext(ctx, sql.LevelDefault)
	require.NoError(t, err)
	defer dbc.Close()

	insertLocation(t, dbc.Session(), "Once", "")
	require.NoError(t, dbc.Commit())
	assert.True(t, dbc.Committed())
	assert.Nil(t, dbc.Tx())

	assert.ErrorIs(t, dbc.Commit(), db.ErrInvalidOperation)
	require.NoError(t, dbc.Close())
	require.NoError(t, dbc.Close())

	assert.Equal(t, 1, countLocations(t, f, "Once"))
	assert.ErrorIs(t, dbc.Commit(), db.ErrInvalidOperation)
}

func TestDbContext_RollbackThenCommitAppliesNothing(t *testing.T) {
	f, _ := dbtest.NewFactory(t)
	ctx := context.Background()

	dbc, err := f.CreateContext(ctx, sql.LevelDefault)
	require.NoError(t, err)
	defer dbc.Close()

	insertLocation(t, dbc.Session(), "Reverted", "")
	require.NoError(t, dbc.Rollback())
	require.NoError(t, dbc.Rollback())
	assert.ErrorIs(t, dbc.Commit(), db.ErrInvalidOperation)
	require.NoError(t, dbc.Close())

	assert.Equal(t, 0, countLocations(t, f, "Reverted"))
}

func TestDbContext_BeginTransactionDiscardsUncommittedWork(t *testing.T) {
	f, _ := dbtest.NewFactory(t)
	ctx := context.Background()

	dbc, err := f.CreateContext(ctx, sql.LevelDefault)
	require.NoError(t, err)
	defer dbc.Close()

	insertLocation(t, dbc.Session(), "Discarded", "")
	require.NoError(t, dbc.BeginTransaction(ctx, sql.LevelSerializable))
	insertLocation(t, dbc.Session(), "Survivor", "")
	require.NoError(t, dbc.Commit())

	// a committed context can start over
	require.NoError(t, dbc.BeginTransaction(ctx, sql.LevelDefault))
	assert.False(t, dbc.Committed())
	insertLocation(t, dbc.Session(), "Uncommitted", "")
	require.NoError(t, dbc.Close())

	assert.Equal(t, 0, countLocations(t, f, "Discarded"))
	assert.Equal(t, 1, countLocations(t, f, "Survivor"))
	assert.Equal(t, 0, countLocations(t, f, "Uncommitted"))
}

func TestDbContext_ClosedContext(t *testing.T) {
	f, _ := dbtest.NewFactory(t)
	ctx := context.Background()

	dbc, err := f.CreateContext(ctx, sql.LevelDefault)
	require.NoError(t, err)
	require.NoError(t, dbc.Close())

	assert.ErrorIs(t, dbc.BeginTransaction(ctx, sql.LevelDefault), db.ErrInvalidOperation)
	assert.NoError(t, dbc.Rollback())
	_, err = dbc.Session().Execute(ctx, `DELETE FROM location`, nil)
	assert.ErrorIs(t, err, db.ErrInvalidOperation)
}

func TestWithContext(t *testing.T) {
	errBoom := errors.New("boom")

	t.Run("commits when fn succeeds", func(t *testing.T) {
		f, _ := dbtest.NewFactory(t)
		err := db.WithContext(context.Background(), f, sql.LevelDefault, func(dbc *db.DbContext) error {
			insertLocation(t, dbc.Session(), "Committed", "")
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, countLocations(t, f, "Committed"))
	})

	t.Run("rolls back when fn fails", func(t *testing.T) {
		f, _ := dbtest.NewFactory(t)
		err := db.WithContext(context.Background(), f, sql.LevelDefault, func(dbc *db.DbContext) error {
			insertLocation(t, dbc.Session(), "Failed", "")
			return errBoom
		})
		assert.ErrorIs(t, err, errBoom)
		assert.Equal(t, 0, countLocations(t, f, "Failed"))
	})

	t.Run("rolls back and re-panics", func(t *testing.T) {
		f, _ := dbtest.NewFactory(t)
		assert.PanicsWithValue(t, "kaboom", func() {
			_ = db.WithContext(context.Background(), f, sql.LevelDefault, func(dbc *db.DbContext) error {
				insertLocation(t, dbc.Session(), "Panicked", "")
				panic("kaboom")
			})
		})
		assert.Equal(t, 0, countLocations(t, f, "Panicked"))
	})

	t.Run("committing inside fn is rejected", func(t *testing.T) {
		f, _ := dbtest.NewFactory(t)
		err := db.WithContext(context.Background(), f, sql.LevelDefault, func(dbc *db.DbContext) error {
			return dbc.Commit()
		})
		assert.ErrorIs(t, err, db.ErrInvalidOperation)
	})
}
