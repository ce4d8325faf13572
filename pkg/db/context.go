// pkg/db/context.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// DbContext pairs a Session with the transaction it was created with and owns
// both. Every statement issued through Session() runs in that transaction.
// Closing a context that was not committed rolls it back, so the usual shape is:
//
//	dbc, err := factory.CreateContext(ctx, sql.LevelDefault)
//	if err != nil {
//		return err
//	}
//	defer dbc.Close()
//	...
//	return dbc.Commit()
type DbContext struct {
	session   *Session
	committed bool
	closed    bool
}

// Session returns the session all work in this context goes through.
func (c *DbContext) Session() *Session { return c.session }

// Tx returns the bound transaction, or nil once it was committed or rolled back.
func (c *DbContext) Tx() *sqlx.Tx { return c.session.Tx() }

// Committed reports whether the last transaction of the context was committed.
func (c *DbContext) Committed() bool { return c.committed }

// Commit commits the bound transaction. Committing twice, or after a
// rollback, is an ErrInvalidOperation.
func (c *DbContext) Commit() error {
	if c.closed {
		return fmt.Errorf("%w: context is closed", ErrInvalidOperation)
	}
	if !c.session.InTransaction() {
		return fmt.Errorf("%w: no transaction to commit", ErrInvalidOperation)
	}
	if err := c.session.Commit(); err != nil {
		return err
	}
	c.committed = true
	return nil
}

// Rollback rolls back the bound transaction. It is safe to call repeatedly.
func (c *DbContext) Rollback() error {
	if c.closed {
		return nil
	}
	return c.session.Rollback()
}

// BeginTransaction rolls back any uncommitted transaction and starts a new one.
func (c *DbContext) BeginTransaction(ctx context.Context, isolation sql.IsolationLevel) error {
	if c.closed {
		return fmt.Errorf("%w: context is closed", ErrInvalidOperation)
	}
	if c.session.InTransaction() {
		if err := c.session.Rollback(); err != nil {
			return err
		}
	}
	if err := c.session.BeginTransaction(ctx, isolation); err != nil {
		return err
	}
	c.committed = false
	return nil
}

// Close releases the context. An uncommitted transaction is rolled back and
// the session's connection is returned. Calling Close again does nothing.
func (c *DbContext) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	var errs []error
	if c.session.InTransaction() {
		errs = append(errs, c.session.Rollback())
	}
	errs = append(errs, c.session.Close())
	return errors.Join(errs...)
}
