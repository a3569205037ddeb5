package adapters

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

const directConnCloseTimeout = 5 * time.Second

// PGXDirectAdapter implements DBAdapter without a pool: every acquisition dials a fresh pgx.Conn,
// which is closed again on release.
type PGXDirectAdapter struct {
	config *pgx.ConnConfig
}

// NewPGXDirectAdapter creates a new adapter that opens one connection per acquisition.
func NewPGXDirectAdapter(config *pgx.ConnConfig) *PGXDirectAdapter {
	return &PGXDirectAdapter{config: config}
}

// Acquire dials a new connection. Direct connections always go to the configured host.
func (d *PGXDirectAdapter) Acquire(ctx context.Context, _ bool) (DBConn, error) {
	conn, err := pgx.ConnectConfig(ctx, d.config)
	if err != nil {
		return nil, err
	}

	release := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), directConnCloseTimeout)
		defer cancel()
		_ = conn.Close(closeCtx)
	}

	return &pgxConn{conn: conn, release: release}, nil
}

// Ping dials, pings and closes one connection.
func (d *PGXDirectAdapter) Ping(ctx context.Context) error {
	conn, err := pgx.ConnectConfig(ctx, d.config)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close(ctx) }()

	return conn.Ping(ctx)
}

// Stats is empty: there is no pool to report on.
func (d *PGXDirectAdapter) Stats() PoolStats {
	return PoolStats{}
}

// Close is a no-op, every connection is closed on release.
func (d *PGXDirectAdapter) Close() {}
