package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql" // mysql driver
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // postgres driver
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver

	"github.com/AntonStoeckl/librarydesk/librarystore/sqlengine"
)

const defaultHealthCheckPeriod = time.Minute

// NewEngine opens the database described by cfg and wraps it in a sqlengine.Engine with the
// configured retry policy. The options are applied after the ones derived from cfg.
func NewEngine(ctx context.Context, cfg DatabaseConfig, options ...sqlengine.Option) (*sqlengine.Engine, error) {
	allOptions := append([]sqlengine.Option{
		sqlengine.WithRetryOptions(
			sqlengine.WithMaxAttempts(cfg.RetryAttempts),
			sqlengine.WithBaseDelay(cfg.RetryBaseDelay),
			sqlengine.WithJitterFactor(cfg.RetryJitter),
		),
		sqlengine.WithAcquireTimeout(cfg.AcquireTimeout),
	}, options...)

	switch cfg.Driver {
	case DriverPGX:
		return newPGXEngine(ctx, cfg, allOptions)
	case DriverPostgres:
		return newSQLEngine("postgres", PostgresDSN(cfg, cfg.Host), sqlengine.DialectPostgres, cfg, allOptions)
	case DriverSQLite:
		return newSQLEngine("sqlite3", SQLiteDSN(cfg.Path), sqlengine.DialectSQLite, cfg, allOptions)
	case DriverSQLX:
		return newSQLXEngine("postgres", PostgresDSN(cfg, cfg.Host), cfg, allOptions)
	case DriverMySQL:
		return newSQLXEngine("mysql", MySQLDSN(cfg), cfg, allOptions)
	default:
		return nil, errors.Join(ErrInvalidConfig, fmt.Errorf("unknown database driver %q", cfg.Driver))
	}
}

func newSQLEngine(
	driverName string,
	dsn string,
	dialect string,
	cfg DatabaseConfig,
	options []sqlengine.Option,
) (*sqlengine.Engine, error) {

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}

	configureSQLPool(db, cfg)

	engine, err := sqlengine.NewEngineFromSQLDB(db, dialect, options...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return engine, nil
}

func newSQLXEngine(driverName string, dsn string, cfg DatabaseConfig, options []sqlengine.Option) (*sqlengine.Engine, error) {
	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}

	configureSQLPool(db.DB, cfg)

	engine, err := sqlengine.NewEngineFromSQLX(db, options...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return engine, nil
}

// newPGXEngine builds a pooled engine, a pooled engine with read replica, or with pool size 0
// an engine that dials one connection per acquisition.
func newPGXEngine(ctx context.Context, cfg DatabaseConfig, options []sqlengine.Option) (*sqlengine.Engine, error) {
	if cfg.PoolSize == 0 {
		connConfig, err := pgx.ParseConfig(PostgresDSN(cfg, cfg.Host))
		if err != nil {
			return nil, err
		}
		connConfig.ConnectTimeout = cfg.AcquireTimeout

		return sqlengine.NewEngineFromPGXConnConfig(connConfig, options...)
	}

	pool, err := newPGXPool(ctx, cfg, cfg.Host)
	if err != nil {
		return nil, err
	}

	if cfg.ReplicaHost == "" {
		engine, engineErr := sqlengine.NewEngineFromPGXPool(pool, options...)
		if engineErr != nil {
			pool.Close()
			return nil, engineErr
		}

		return engine, nil
	}

	replica, err := newPGXPool(ctx, cfg, cfg.ReplicaHost)
	if err != nil {
		pool.Close()
		return nil, err
	}

	engine, err := sqlengine.NewEngineFromPGXPoolAndReplica(pool, replica, options...)
	if err != nil {
		pool.Close()
		replica.Close()

		return nil, err
	}

	return engine, nil
}

func newPGXPool(ctx context.Context, cfg DatabaseConfig, host string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(PostgresDSN(cfg, host))
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = int32(cfg.PoolSize)
	poolConfig.MinConns = int32(cfg.PoolSize / 5)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = cfg.ConnMaxIdleTime
	poolConfig.HealthCheckPeriod = defaultHealthCheckPeriod
	poolConfig.ConnConfig.ConnectTimeout = cfg.AcquireTimeout

	return pgxpool.NewWithConfig(ctx, poolConfig)
}

func configureSQLPool(db *sql.DB, cfg DatabaseConfig) {
	db.SetMaxOpenConns(cfg.PoolSize)
	db.SetMaxIdleConns(cfg.PoolSize)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
}
