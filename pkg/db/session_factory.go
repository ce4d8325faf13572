// pkg/db/session_factory.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

// SessionFactory hands out sessions, each holding its own physical connection
// taken from the process-wide pool. It never retries a failed open.
type SessionFactory struct {
	db      *sqlx.DB
	logger  zerolog.Logger
	metrics *Metrics
}

// NewSessionFactory creates a factory over db. metrics may be nil.
func NewSessionFactory(db *sqlx.DB, logger zerolog.Logger, metrics *Metrics) *SessionFactory {
	return &SessionFactory{
		db:      db,
		logger:  logger.With().Str("component", "session_factory").Logger(),
		metrics: metrics,
	}
}

// CreateSession opens a new session with no transaction bound.
func (f *SessionFactory) CreateSession(ctx context.Context, readOnly bool) (*Session, error) {
	conn, err := f.db.Connx(ctx)
	if err != nil {
		f.metrics.connectionFailed()
		return nil, classifyConnect(err)
	}
	s := newSession(conn, f.db.DriverName(), readOnly, f.metrics, f.logger)
	f.metrics.sessionOpened(readOnly)
	s.logger.Debug().Bool("read_only", readOnly).Msg("Session opened")
	return s, nil
}

// CreateContext opens a new read-write session and begins a transaction at
// isolation on it. sql.LevelDefault leaves the level to the store.
// The caller owns the returned context and must Close it.
func (f *SessionFactory) CreateContext(ctx context.Context, isolation sql.IsolationLevel) (*DbContext, error) {
	s, err := f.CreateSession(ctx, false)
	if err != nil {
		return nil, err
	}
	if err := s.BeginTransaction(ctx, isolation); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("create context: %w", err)
	}
	return &DbContext{session: s}, nil
}

// NewScope starts a per-request scope with no session yet.
func (f *SessionFactory) NewScope() *Scope {
	return &Scope{factory: f}
}

// Ping checks that the store answers.
func (f *SessionFactory) Ping(ctx context.Context) error {
	if err := f.db.PingContext(ctx); err != nil {
		return classifyConnect(err)
	}
	return nil
}

// classifyConnect reports every failure to obtain a connection as ErrConnection,
// except cancellation, which stays recognisable as such.
func classifyConnect(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("open connection: %w", err)
	}
	return fmt.Errorf("%w: open connection: %w", ErrConnection, err)
}

type scopeState int

const (
	scopeNoSession scopeState = iota
	scopeReadOnly
	scopeReadWrite
)

// Scope is the per-request scoped-session holder. The first ReadOnlySession
// call opens a read-only session inside a read-only transaction. The first
// Session call opens a read-write session, replacing a read-only one in place
// so callers that already hold the *Session see the upgrade.
//
// A Scope belongs to one request and must not be shared between goroutines.
type Scope struct {
	factory *SessionFactory
	state   scopeState
	session *Session
}

// Session returns the scope's read-write session, creating or upgrading it.
func (sc *Scope) Session(ctx context.Context) (*Session, error) {
	switch sc.state {
	case scopeReadWrite:
		return sc.session, nil
	case scopeReadOnly:
		rw, err := sc.factory.CreateSession(ctx, false)
		if err != nil {
			return nil, err
		}
		if err := sc.session.Replace(rw); err != nil {
			// The read-write connection now lives in sc.session either way.
			sc.state = scopeReadWrite
			return nil, fmt.Errorf("upgrade scoped session: %w", err)
		}
		sc.state = scopeReadWrite
		sc.session.logger.Debug().Msg("Scoped session upgraded to read-write")
		return sc.session, nil
	default:
		s, err := sc.factory.CreateSession(ctx, false)
		if err != nil {
			return nil, err
		}
		sc.session = s
		sc.state = scopeReadWrite
		return s, nil
	}
}

// ReadOnlySession returns the scope's session, opening a read-only one when
// there is none. An existing read-write session is returned as is, so reads
// see the request's own pending writes.
func (sc *Scope) ReadOnlySession(ctx context.Context) (*Session, error) {
	if sc.state != scopeNoSession {
		return sc.session, nil
	}
	s, err := sc.factory.CreateSession(ctx, true)
	if err != nil {
		return nil, err
	}
	if err := s.BeginTransaction(ctx, sql.LevelDefault); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("open read-only scoped session: %w", err)
	}
	sc.session = s
	sc.state = scopeReadOnly
	return s, nil
}

// Close releases the scoped session. A transaction still bound to it is rolled back.
func (sc *Scope) Close() error {
	if sc.session == nil {
		return nil
	}
	err := sc.session.Close()
	sc.session = nil
	sc.state = scopeNoSession
	return err
}
