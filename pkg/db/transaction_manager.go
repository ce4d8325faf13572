// pkg/db/transaction_manager.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// ParseIsolationLevel maps a configured isolation name onto sql.IsolationLevel.
// An empty string and "unspecified" both mean sql.LevelDefault.
func ParseIsolationLevel(name string) (sql.IsolationLevel, error) {
	switch strings.ToLower(strings.NewReplacer("_", " ", "-", " ").Replace(strings.TrimSpace(name))) {
	case "", "unspecified", "default":
		return sql.LevelDefault, nil
	case "read uncommitted":
		return sql.LevelReadUncommitted, nil
	case "read committed":
		return sql.LevelReadCommitted, nil
	case "write committed":
		return sql.LevelWriteCommitted, nil
	case "repeatable read":
		return sql.LevelRepeatableRead, nil
	case "snapshot":
		return sql.LevelSnapshot, nil
	case "serializable":
		return sql.LevelSerializable, nil
	case "linearizable":
		return sql.LevelLinearizable, nil
	default:
		return sql.LevelDefault, fmt.Errorf("unknown isolation level %q", name)
	}
}

// WithContext runs fn inside a fresh DbContext. The transaction is committed
// when fn returns nil and rolled back when it returns an error or panics.
// A panic is re-raised after the rollback. fn must not commit dbc itself.
func WithContext(ctx context.Context, factory *SessionFactory, isolation sql.IsolationLevel, fn func(dbc *DbContext) error) (err error) {
	dbc, err := factory.CreateContext(ctx, isolation)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = dbc.Close()
			panic(p)
		}
		if closeErr := dbc.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if err = fn(dbc); err != nil {
		return err
	}
	return dbc.Commit()
}
