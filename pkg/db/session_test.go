// pkg/db/session_test.go
package db_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"membership-service/pkg/db"
	"membership-service/pkg/db/dbtest"
)

const insertLocationSQL = `INSERT INTO location (guid, created_utc, name, city)
	VALUES (:guid, :created_utc, :name, :city)`

type locationRow struct {
	UID  int64  `db:"uid"`
	Name string `db:"name"`
	City string `db:"city"`
}

func insertLocation(t *testing.T, s *db.Session, name, city string) {
	t.Helper()
	n, err := s.Execute(context.Background(), insertLocationSQL, map[string]any{
		"guid":        uuid.NewString(),
		"created_utc": time.Now().UTC(),
		"name":        name,
		"city":        city,
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

// countLocations counts rows named name through a fresh session, so it only
// sees committed data.
func countLocations(t *testing.T, f *db.SessionFactory, name string) int {
	t.Helper()
	ctx := context.Background()
	s, err := f.CreateSession(ctx, true)
	require.NoError(t, err)
	defer s.Close()

	n, err := db.ExecuteScalar[int](ctx, s, `SELECT COUNT(*) FROM location WHERE name = :name`, map[string]any{"name": name})
	require.NoError(t, err)
	return n
}

func TestSession_StatementsShareBoundTransaction(t *testing.T) {
	f, _ := dbtest.NewFactory(t)
	ctx := context.Background()

	dbc, err := f.CreateContext(ctx, sql.LevelDefault)
	require.NoError(t, err)
	defer dbc.Close()

	s := dbc.Session()
	insertLocation(t, s, "Downtown", "Oslo")

	var got locationRow
	require.NoError(t, s.QueryRow(ctx, &got, `SELECT uid, name, city FROM location WHERE name = :name`, map[string]any{"name": "Downtown"}))
	assert.Equal(t, "Oslo", got.City)
	assert.NotZero(t, got.UID)

	// not visible outside the transaction until commit
	assert.Equal(t, 0, countLocations(t, f, "Downtown"))

	require.NoError(t, dbc.Commit())
	assert.Equal(t, 1, countLocations(t, f, "Downtown"))
}

func TestSession_QueryAndSelect(t *testing.T) {
	f, _ := dbtest.NewFactory(t)
	ctx := context.Background()

	s, err := f.CreateSession(ctx, false)
	require.NoError(t, err)
	defer s.Close()

	insertLocation(t, s, "North", "Bergen")
	insertLocation(t, s, "South", "Oslo")
	insertLocation(t, s, "East", "Oslo")

	var all []locationRow
	require.NoError(t, s.Query(ctx, &all, `SELECT uid, name, city FROM location ORDER BY uid`, nil))
	require.Len(t, all, 3)
	assert.Equal(t, "North", all[0].Name)

	var oslo []locationRow
	q := sq.Select("uid", "name", "city").From("location").Where(sq.Eq{"city": "Oslo"}).OrderBy("name")
	require.NoError(t, s.Select(ctx, &oslo, q))
	require.Len(t, oslo, 2)
	assert.Equal(t, "East", oslo[0].Name)
	assert.Equal(t, "South", oslo[1].Name)

	n, err := db.ExecuteScalar[int64](ctx, s, `SELECT COUNT(*) FROM location WHERE city = :city`, map[string]any{"city": "Oslo"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestSession_ExecuteNoMatchIsNotAnError(t *testing.T) {
	f, _ := dbtest.NewFactory(t)
	ctx := context.Background()

	s, err := f.CreateSession(ctx, false)
	require.NoError(t, err)
	defer s.Close()

	n, err := s.Execute(ctx, `DELETE FROM location WHERE name = :name`, map[string]any{"name": "missing"})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSession_QueryRowNoRows(t *testing.T) {
	f, _ := dbtest.NewFactory(t)
	ctx := context.Background()

	s, err := f.CreateSession(ctx, false)
	require.NoError(t, err)
	defer s.Close()

	var got locationRow
	err = s.QueryRow(ctx, &got, `SELECT uid, name, city FROM location WHERE uid = :uid`, map[string]any{"uid": 42})
	assert.ErrorIs(t, err, db.ErrNoRows)

	// a missing row does not poison the session
	_, err = db.ExecuteScalar[int](ctx, s, `SELECT COUNT(*) FROM location`, nil)
	assert.NoError(t, err)
}

func TestSession_StatementAndConstraintErrors(t *testing.T) {
	f, _ := dbtest.NewFactory(t)
	ctx := context.Background()

	s, err := f.CreateSession(ctx, false)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Execute(ctx, `INSERT INTO nowhere (x) VALUES (1)`, nil)
	assert.ErrorIs(t, err, db.ErrStatement)

	guid := uuid.NewString()
	arg := map[string]any{"guid": guid, "created_utc": time.Now().UTC(), "name": "Dup", "city": ""}
	_, err = s.Execute(ctx, insertLocationSQL, arg)
	require.NoError(t, err)
	_, err = s.Execute(ctx, insertLocationSQL, arg)
	assert.ErrorIs(t, err, db.ErrConstraint)

	// statement failures leave the session usable
	_, err = db.ExecuteScalar[int](ctx, s, `SELECT COUNT(*) FROM location`, nil)
	assert.NoError(t, err)
}

func TestSession_MissingNamedParameter(t *testing.T) {
	f, _ := dbtest.NewFactory(t)
	ctx := context.Background()

	s, err := f.CreateSession(ctx, false)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Execute(ctx, insertLocationSQL, map[string]any{"name": "only"})
	assert.ErrorIs(t, err, db.ErrStatement)
}

func TestSession_BeginTransactionTwice(t *testing.T) {
	f, _ := dbtest.NewFactory(t)
	ctx := context.Background()

	s, err := f.CreateSession(ctx, false)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.BeginTransaction(ctx, sql.LevelDefault))
	err = s.BeginTransaction(ctx, sql.LevelDefault)
	assert.ErrorIs(t, err, db.ErrInvalidOperation)
	assert.True(t, s.InTransaction())
}

func TestSession_CommitWithoutTransaction(t *testing.T) {
	f, _ := dbtest.NewFactory(t)
	ctx := context.Background()

	s, err := f.CreateSession(ctx, false)
	require.NoError(t, err)
	defer s.Close()

	assert.ErrorIs(t, s.Commit(), db.ErrInvalidOperation)
}

func TestSession_RollbackIsIdempotent(t *testing.T) {
	f, _ := dbtest.NewFactory(t)
	ctx := context.Background()

	s, err := f.CreateSession(ctx, false)
	require.NoError(t, err)

	require.NoError(t, s.BeginTransaction(ctx, sql.LevelDefault))
	insertLocation(t, s, "Ghost", "Nowhere")

	require.NoError(t, s.Rollback())
	require.NoError(t, s.Rollback())
	assert.True(t, s.RolledBack())

	// commit after rollback performs the (no-op) rollback again
	require.NoError(t, s.Commit())
	assert.False(t, s.InTransaction())
	require.NoError(t, s.Close())

	assert.Equal(t, 0, countLocations(t, f, "Ghost"))
}

func TestSession_RollbackAfterCommitDoesNothing(t *testing.T) {
	f, _ := dbtest.NewFactory(t)
	ctx := context.Background()

	s, err := f.CreateSession(ctx, false)
	require.NoError(t, err)

	require.NoError(t, s.BeginTransaction(ctx, sql.LevelReadCommitted))
	insertLocation(t, s, "Kept", "Oslo")
	require.NoError(t, s.Commit())
	require.NoError(t, s.Rollback())
	require.NoError(t, s.Close())

	assert.Equal(t, 1, countLocations(t, f, "Kept"))
}

func TestSession_BeginAfterRollbackResetsState(t *testing.T) {
	f, _ := dbtest.NewFactory(t)
	ctx := context.Background()

	s, err := f.CreateSession(ctx, false)
	require.NoError(t, err)

	require.NoError(t, s.BeginTransaction(ctx, sql.LevelDefault))
	insertLocation(t, s, "First", "")
	require.NoError(t, s.Rollback())

	require.NoError(t, s.BeginTransaction(ctx, sql.LevelDefault))
	assert.False(t, s.RolledBack())
	insertLocation(t, s, "Second", "")
	require.NoError(t, s.Commit())
	require.NoError(t, s.Close())

	assert.Equal(t, 0, countLocations(t, f, "First"))
	assert.Equal(t, 1, countLocations(t, f, "Second"))
}

func TestSession_CloseRollsBackAndIsIdempotent(t *testing.T) {
	f, _ := dbtest.NewFactory(t)
	ctx := context.Background()

	s, err := f.CreateSession(ctx, false)
	require.NoError(t, err)

	require.NoError(t, s.BeginTransaction(ctx, sql.LevelDefault))
	insertLocation(t, s, "Dropped", "")

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.True(t, s.Closed())

	_, err = s.Execute(ctx, `DELETE FROM location`, nil)
	assert.ErrorIs(t, err, db.ErrInvalidOperation)
	assert.ErrorIs(t, s.BeginTransaction(ctx, sql.LevelDefault), db.ErrInvalidOperation)
	assert.ErrorIs(t, s.Commit(), db.ErrInvalidOperation)

	assert.Equal(t, 0, countLocations(t, f, "Dropped"))
}

func TestSession_CancellationLeavesSessionUnusable(t *testing.T) {
	f, _ := dbtest.NewFactory(t)
	ctx := context.Background()

	s, err := f.CreateSession(ctx, false)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.BeginTransaction(ctx, sql.LevelDefault))
	insertLocation(t, s, "Cancelled", "")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = s.Execute(cancelled, `DELETE FROM location`, nil)
	require.ErrorIs(t, err, context.Canceled)

	_, err = s.Execute(ctx, `DELETE FROM location`, nil)
	assert.ErrorIs(t, err, db.ErrInvalidOperation)

	// the transaction can no longer be committed
	assert.ErrorIs(t, s.Commit(), db.ErrInvalidOperation)
	require.NoError(t, s.Close())
	assert.Equal(t, 0, countLocations(t, f, "Cancelled"))
}

func TestSession_ReplaceAdoptsReplacement(t *testing.T) {
	f, _ := dbtest.NewFactory(t)
	ctx := context.Background()

	ro, err := f.CreateSession(ctx, true)
	require.NoError(t, err)
	defer ro.Close()
	require.NoError(t, ro.BeginTransaction(ctx, sql.LevelDefault))
	id := ro.ID()

	rw, err := f.CreateSession(ctx, false)
	require.NoError(t, err)

	require.NoError(t, ro.Replace(rw))
	assert.True(t, rw.Closed(), "replacement is emptied")
	assert.False(t, ro.ReadOnly())
	assert.False(t, ro.InTransaction())
	assert.Equal(t, id, ro.ID(), "identity survives the swap")

	insertLocation(t, ro, "Upgraded", "")
	assert.Equal(t, 1, countLocations(t, f, "Upgraded"))

	assert.ErrorIs(t, ro.Replace(ro), db.ErrInvalidOperation)
	assert.ErrorIs(t, ro.Replace(rw), db.ErrInvalidOperation)
}

func TestSession_ReplaceCommitsPendingWork(t *testing.T) {
	f, _ := dbtest.NewFactory(t)
	ctx := context.Background()

	old, err := f.CreateSession(ctx, false)
	require.NoError(t, err)
	defer old.Close()
	require.NoError(t, old.BeginTransaction(ctx, sql.LevelDefault))
	insertLocation(t, old, "Pending", "")

	fresh, err := f.CreateSession(ctx, false)
	require.NoError(t, err)
	require.NoError(t, old.Replace(fresh))

	assert.Equal(t, 1, countLocations(t, f, "Pending"))
}
