// Package dbx declares the narrow database contract shared by the postgres
// repositories. It is satisfied by *pgxpool.Pool and by pgx.Tx, so a
// repository can run inside or outside a transaction without knowing which.
package dbx

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
