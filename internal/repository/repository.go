package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNoDatabase is returned by every repository method when the service
// runs without a configured Postgres pool. Callers treat it like any
// other storage failure instead of crashing.
var ErrNoDatabase = errors.New("database not configured")

// PgxPool is the subset of pgxpool.Pool the repositories use, kept
// narrow so tests can substitute fakes.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}
