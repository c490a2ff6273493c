package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// dbtx is the subset of *pgxpool.Pool and pgx.Tx every repository
// needs. Each entity repository is built once against this interface
// and instantiated twice: once over the pool for producer/ingress
// reads, once over a pgx.Tx for the write-back transactions the
// stage-pipeline's read-modify-write rule requires.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
