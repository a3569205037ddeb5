package adapters

import (
	"context"
	"errors"
)

// ErrLastInsertIDUnsupported is returned by results of drivers that can't report the id of an inserted row.
var ErrLastInsertIDUnsupported = errors.New("driver does not support LastInsertId, use RETURNING")

// DBAdapter defines the interface for acquiring connections from a database handle.
type DBAdapter interface {
	// Acquire hands out one connection. With readOnly set, an adapter may serve it from a replica.
	Acquire(ctx context.Context, readOnly bool) (DBConn, error)
	Ping(ctx context.Context) error
	Stats() PoolStats
	Close()
}

// Querier defines the statement execution methods shared by connections and transactions.
type Querier interface {
	Query(ctx context.Context, query string, args ...any) (DBRows, error)
	Exec(ctx context.Context, query string, args ...any) (DBResult, error)
}

// DBConn defines one acquired connection.
type DBConn interface {
	Querier
	Begin(ctx context.Context) (DBTx, error)
	Release()
}

// DBTx defines an open transaction on an acquired connection.
type DBTx interface {
	Querier
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// DBRows defines the interface for query result rows.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// DBResult defines the interface for execution results.
type DBResult interface {
	RowsAffected() (int64, error)
	LastInsertId() (int64, error)
}

// PoolStats is a driver independent snapshot of the pool state.
type PoolStats struct {
	MaxConns      int
	TotalConns    int
	IdleConns     int
	AcquiredConns int
}
