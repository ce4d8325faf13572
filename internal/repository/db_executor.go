// internal/repository/db_executor.go
package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
)

// DBExecutor defines the database operations repositories need.
// *db.Session implements it, so every repository call made with a context's
// session runs inside that context's transaction.
// Statements use :name parameters bound from a struct with db tags or a map.
type DBExecutor interface {
	Query(ctx context.Context, dest any, query string, arg any) error
	QueryRow(ctx context.Context, dest any, query string, arg any) error
	Select(ctx context.Context, dest any, b sq.Sqlizer) error
	Execute(ctx context.Context, query string, arg any) (int64, error)
	Scalar(ctx context.Context, dest any, query string, arg any) error
	// Dialect names the SQL dialect statements run against ("sqlite" or "postgres").
	Dialect() string
}
