// pkg/db/errors.go
package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Error kinds surfaced by the store boundary. Callers match them with errors.Is.
var (
	// ErrConnection means the physical connection could not be opened or became unusable.
	// It is fatal for the current scope and never retried here.
	ErrConnection = errors.New("database connection error")
	// ErrStatement means the store rejected a statement (malformed SQL, bad parameter, type mismatch).
	ErrStatement = errors.New("database statement error")
	// ErrConstraint is a statement rejected by an integrity constraint (unique, foreign key, not null).
	ErrConstraint = errors.New("database constraint violation")
	// ErrInvalidOperation means a session or context was used outside its lifecycle.
	ErrInvalidOperation = errors.New("invalid session operation")
	// ErrNoRows is returned by QueryRow when the statement produced no rows.
	ErrNoRows = errors.New("no rows in result set")
)

// classifyError maps a driver error onto the error kinds above.
// Context errors are kept as-is so callers can still test for cancellation.
func classifyError(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", op, ErrNoRows)
	case isConnectionError(err):
		return fmt.Errorf("%w: %s: %w", ErrConnection, op, err)
	case isConstraintError(err):
		return fmt.Errorf("%w: %s: %w", ErrConstraint, op, err)
	default:
		return fmt.Errorf("%w: %s: %w", ErrStatement, op, err)
	}
}

func isConnectionError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// 08: connection exception, 57P: operator intervention (admin shutdown etc.)
		return pqErr.Code.Class() == "08" || pqErr.Code.Class() == "57"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() & 0xff {
		case sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_IOERR, sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_CORRUPT:
			return true
		}
	}
	return false
}

func isConstraintError(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Class() == "23"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}
