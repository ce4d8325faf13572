// pkg/db/session.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

// executor is what both *sqlx.Conn and *sqlx.Tx offer for running statements.
type executor interface {
	sqlx.QueryerContext
	sqlx.ExecerContext
	Rebind(query string) string
}

// Scalarer runs a statement that yields a single value.
type Scalarer interface {
	Scalar(ctx context.Context, dest any, query string, arg any) error
}

// Session owns exactly one physical connection and at most one transaction
// bound to it. Statements run inside the bound transaction when there is one,
// otherwise directly on the connection.
//
// Statements use sqlx named parameters (":account_uid") bound from a struct
// with db tags or a map[string]any; pass a nil arg for statements without
// parameters.
//
// A Session is not safe for concurrent use. Close may be called any number of times.
type Session struct {
	id         string
	dialect    string
	conn       *sqlx.Conn
	tx         *sqlx.Tx
	readOnly   bool
	rolledBack bool
	broken     bool
	closed     atomic.Bool

	metrics *Metrics
	logger  zerolog.Logger
}

func newSession(conn *sqlx.Conn, dialect string, readOnly bool, metrics *Metrics, logger zerolog.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		id:       id,
		dialect:  dialect,
		conn:     conn,
		readOnly: readOnly,
		metrics:  metrics,
		logger:   logger.With().Str("session", id).Logger(),
	}
}

// ID returns the session's tracking id.
func (s *Session) ID() string { return s.id }

// String returns the tracking id, so sessions read well in logs.
func (s *Session) String() string { return s.id }

// Dialect returns the driver name of the pool the session came from,
// DriverSQLite or DriverPostgres.
func (s *Session) Dialect() string { return s.dialect }

// ReadOnly reports whether the session was opened for reads only.
func (s *Session) ReadOnly() bool { return s.readOnly }

// RolledBack reports whether the last transaction was rolled back.
func (s *Session) RolledBack() bool { return s.rolledBack }

// InTransaction reports whether a transaction is bound to the session.
func (s *Session) InTransaction() bool { return s.tx != nil }

// Tx returns the bound transaction, or nil.
func (s *Session) Tx() *sqlx.Tx { return s.tx }

// Closed reports whether the session released its connection.
func (s *Session) Closed() bool { return s.closed.Load() }

// Query runs a statement and scans every row into dest, a pointer to a slice.
func (s *Session) Query(ctx context.Context, dest any, query string, arg any) error {
	q, err := s.executor()
	if err != nil {
		return err
	}
	bound, args, err := bindNamed(q, query, arg)
	if err != nil {
		return err
	}
	return s.fail(ctx, "query", sqlx.SelectContext(ctx, q, dest, bound, args...))
}

// QueryRow scans the first row into dest. It returns ErrNoRows when there is none.
func (s *Session) QueryRow(ctx context.Context, dest any, query string, arg any) error {
	q, err := s.executor()
	if err != nil {
		return err
	}
	bound, args, err := bindNamed(q, query, arg)
	if err != nil {
		return err
	}
	return s.fail(ctx, "query row", sqlx.GetContext(ctx, q, dest, bound, args...))
}

// Select runs a squirrel-built query and scans every row into dest.
func (s *Session) Select(ctx context.Context, dest any, b sq.Sqlizer) error {
	q, err := s.executor()
	if err != nil {
		return err
	}
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("%w: build query: %w", ErrStatement, err)
	}
	return s.fail(ctx, "select", sqlx.SelectContext(ctx, q, dest, q.Rebind(query), args...))
}

// Execute runs a statement and returns the number of affected rows.
// No matching rows is not an error.
func (s *Session) Execute(ctx context.Context, query string, arg any) (int64, error) {
	q, err := s.executor()
	if err != nil {
		return 0, err
	}
	bound, args, err := bindNamed(q, query, arg)
	if err != nil {
		return 0, err
	}
	res, err := q.ExecContext(ctx, bound, args...)
	if err != nil {
		return 0, s.fail(ctx, "execute", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, s.fail(ctx, "rows affected", err)
	}
	return n, nil
}

// Scalar scans the first column of the first row into dest.
func (s *Session) Scalar(ctx context.Context, dest any, query string, arg any) error {
	q, err := s.executor()
	if err != nil {
		return err
	}
	bound, args, err := bindNamed(q, query, arg)
	if err != nil {
		return err
	}
	return s.fail(ctx, "execute scalar", q.QueryRowxContext(ctx, bound, args...).Scan(dest))
}

// ExecuteScalar runs a single-value query such as a COUNT and returns the value as T.
func ExecuteScalar[T any](ctx context.Context, s Scalarer, query string, arg any) (T, error) {
	var v T
	err := s.Scalar(ctx, &v, query, arg)
	return v, err
}

// BeginTransaction binds a new transaction to the session. Read-only sessions
// get read-only transactions.
func (s *Session) BeginTransaction(ctx context.Context, isolation sql.IsolationLevel) error {
	if err := s.usable(); err != nil {
		return err
	}
	if s.tx != nil {
		return fmt.Errorf("%w: there is already a transaction associated with this session", ErrInvalidOperation)
	}
	tx, err := s.conn.BeginTxx(ctx, &sql.TxOptions{Isolation: isolation, ReadOnly: s.readOnly})
	if err != nil {
		return s.fail(ctx, "begin transaction", err)
	}
	s.tx = tx
	s.rolledBack = false
	return nil
}

// Commit commits the bound transaction. A session that was rolled back is
// rolled back again instead, which is a no-op, so a rollback can never be
// reported as a successful commit twice.
func (s *Session) Commit() error {
	if s.closed.Load() {
		return fmt.Errorf("%w: session is closed", ErrInvalidOperation)
	}
	if s.rolledBack {
		return s.Rollback()
	}
	if s.tx == nil {
		return fmt.Errorf("%w: no transaction to commit", ErrInvalidOperation)
	}
	if s.broken {
		_ = s.Rollback()
		return fmt.Errorf("%w: session failed earlier, transaction rolled back", ErrInvalidOperation)
	}

	tx := s.tx
	s.tx = nil
	if err := tx.Commit(); err != nil {
		s.rolledBack = true
		s.metrics.rolledBack()
		return s.fail(context.Background(), "commit", err)
	}
	s.metrics.committed()
	return nil
}

// Rollback rolls back the bound transaction. Calling it again, or after a
// commit, does nothing.
func (s *Session) Rollback() error {
	if s.rolledBack {
		return nil
	}
	s.rolledBack = true
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return classifyError("rollback", err)
	}
	s.metrics.rolledBack()
	return nil
}

// Replace swaps the session's connection and transaction for replacement's.
// The current transaction is committed (or rolled back if the session failed)
// and the current connection is closed first, so no connection leaks. The
// replacement is left empty and closed.
func (s *Session) Replace(replacement *Session) error {
	if replacement == nil || replacement == s {
		return fmt.Errorf("%w: invalid replacement session", ErrInvalidOperation)
	}
	if s.closed.Load() || replacement.closed.Load() {
		return fmt.Errorf("%w: session is closed", ErrInvalidOperation)
	}

	var errs []error
	if s.tx != nil {
		if s.broken {
			errs = append(errs, s.Rollback())
		} else {
			errs = append(errs, s.Commit())
		}
	}
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			errs = append(errs, classifyError("close replaced connection", err))
		}
		s.metrics.sessionClosed()
	}

	s.logger.Debug().Str("replacement", replacement.id).Bool("read_only", replacement.readOnly).Msg("Session connection replaced")

	s.conn = replacement.conn
	s.tx = replacement.tx
	s.readOnly = replacement.readOnly
	s.rolledBack = replacement.rolledBack
	s.broken = replacement.broken

	replacement.conn = nil
	replacement.tx = nil
	replacement.closed.Store(true)

	return errors.Join(errs...)
}

// Close rolls back any transaction still bound, never committing it, and
// closes the physical connection.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	var errs []error
	if s.tx != nil {
		if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			errs = append(errs, classifyError("rollback on close", err))
		} else {
			s.metrics.rolledBack()
		}
		s.tx = nil
		s.rolledBack = true
	}
	if s.conn != nil {
		if err := s.conn.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
			errs = append(errs, classifyError("close connection", err))
		}
		s.conn = nil
		s.metrics.sessionClosed()
	}

	s.logger.Debug().Msg("Session closed")
	return errors.Join(errs...)
}

func (s *Session) usable() error {
	if s.closed.Load() {
		return fmt.Errorf("%w: session is closed", ErrInvalidOperation)
	}
	if s.broken {
		return fmt.Errorf("%w: session is unusable after a failed connection or cancellation", ErrInvalidOperation)
	}
	return nil
}

func (s *Session) executor() (executor, error) {
	if err := s.usable(); err != nil {
		return nil, err
	}
	if s.tx != nil {
		return s.tx, nil
	}
	return s.conn, nil
}

// fail classifies err and marks the session unusable when the connection is
// gone or the operation was cancelled mid-flight.
func (s *Session) fail(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		err = fmt.Errorf("%w: %w", ctxErr, err)
	}
	err = classifyError(op, err)
	if errors.Is(err, ErrConnection) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		s.broken = true
	}
	return err
}

func bindNamed(q executor, query string, arg any) (string, []any, error) {
	if arg == nil {
		return q.Rebind(query), nil, nil
	}
	named, args, err := sqlx.Named(query, arg)
	if err != nil {
		return "", nil, fmt.Errorf("%w: bind parameters: %w", ErrStatement, err)
	}
	return q.Rebind(named), args, nil
}
