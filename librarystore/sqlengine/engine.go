package sqlengine

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql"    // dialect registration
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"  // dialect registration
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/librarydesk/librarystore"
	"github.com/AntonStoeckl/librarydesk/librarystore/sqlengine/internal/adapters"
)

// Supported SQL dialects. The values match the goqu dialect names.
const (
	DialectPostgres = "postgres"
	DialectMySQL    = "mysql"
	DialectSQLite   = "sqlite3"
)

// Statement is anything that renders to SQL with bound parameters, e.g. a goqu dataset.
type Statement interface {
	ToSQL() (string, []any, error)
}

// Row is the current row of a result set.
type Row interface {
	Scan(dest ...any) error
}

// ScanFunc is called once per result row.
type ScanFunc func(row Row) error

// Result reports what a statement did.
type Result struct {
	RowsAffected int64
	RowsRead     int
}

// PoolStats is a snapshot of the connection pool.
type PoolStats struct {
	MaxConns      int
	TotalConns    int
	IdleConns     int
	AcquiredConns int
}

// ServerInfo describes the database the engine is connected to.
type ServerInfo struct {
	Dialect  string
	Version  string
	Database string
	Pool     PoolStats
}

// Engine is the connection pool manager. It is safe for concurrent use.
type Engine struct {
	db               adapters.DBAdapter
	dialect          string
	builder          goqu.DialectWrapper
	logger           librarystore.Logger
	contextualLogger librarystore.ContextualLogger
	metricsCollector librarystore.MetricsCollector
	tracingCollector librarystore.TracingCollector
	retry            retryConfig
	acquireTimeout   time.Duration
	clock            func() time.Time
}

// NewEngineFromPGXPool creates a new Engine using a pgx Pool with optional configuration.
func NewEngineFromPGXPool(pool *pgxpool.Pool, options ...Option) (*Engine, error) {
	if pool == nil {
		return nil, librarystore.ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewPGXAdapter(pool), DialectPostgres, options...)
}

// NewEngineFromPGXPoolAndReplica creates a new Engine using a primary and a replica pgx Pool.
// Reads run against the replica when the context asks for eventual consistency.
func NewEngineFromPGXPoolAndReplica(pool *pgxpool.Pool, replica *pgxpool.Pool, options ...Option) (*Engine, error) {
	if pool == nil || replica == nil {
		return nil, librarystore.ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewPGXAdapterWithReplica(pool, replica), DialectPostgres, options...)
}

// NewEngineFromPGXConnConfig creates a new Engine without a pool: each acquisition opens
// a fresh connection that is closed again on release.
func NewEngineFromPGXConnConfig(config *pgx.ConnConfig, options ...Option) (*Engine, error) {
	if config == nil {
		return nil, librarystore.ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewPGXDirectAdapter(config), DialectPostgres, options...)
}

// NewEngineFromSQLDB creates a new Engine using a sql.DB opened for the given dialect.
func NewEngineFromSQLDB(db *sql.DB, dialect string, options ...Option) (*Engine, error) {
	if db == nil {
		return nil, librarystore.ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewSQLAdapter(db), dialect, options...)
}

// NewEngineFromSQLX creates a new Engine using a sqlx.DB. The dialect follows the driver name.
func NewEngineFromSQLX(db *sqlx.DB, options ...Option) (*Engine, error) {
	if db == nil {
		return nil, librarystore.ErrNilDatabaseConnection
	}

	dialect, err := DialectForDriver(db.DriverName())
	if err != nil {
		return nil, err
	}

	return newEngine(adapters.NewSQLXAdapter(db), dialect, options...)
}

func newEngine(db adapters.DBAdapter, dialect string, options ...Option) (*Engine, error) {
	if !isSupportedDialect(dialect) {
		return nil, errors.Join(librarystore.ErrUnsupportedDialect, errors.New(dialect))
	}

	e := &Engine{
		db:             db,
		dialect:        dialect,
		builder:        goqu.Dialect(dialect),
		retry:          defaultRetryConfig(),
		acquireTimeout: defaultAcquireTimeout,
		clock:          time.Now,
	}

	for _, option := range options {
		if err := option(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// DialectForDriver maps a database/sql driver name onto a supported dialect.
func DialectForDriver(driverName string) (string, error) {
	switch driverName {
	case "postgres", "pgx":
		return DialectPostgres, nil
	case DialectMySQL:
		return DialectMySQL, nil
	case DialectSQLite:
		return DialectSQLite, nil
	default:
		return "", errors.Join(librarystore.ErrUnsupportedDialect, errors.New(driverName))
	}
}

func isSupportedDialect(dialect string) bool {
	return dialect == DialectPostgres || dialect == DialectMySQL || dialect == DialectSQLite
}

// Dialect returns the SQL dialect the engine speaks.
func (e *Engine) Dialect() string {
	return e.dialect
}

// Builder returns a goqu builder for the engine's dialect.
func (e *Engine) Builder() goqu.DialectWrapper {
	return e.builder
}

// SupportsRowLocks reports whether SELECT ... FOR UPDATE is available.
// SQLite locks the whole database on BEGIN IMMEDIATE instead.
func (e *Engine) SupportsRowLocks() bool {
	return e.dialect != DialectSQLite
}

// Now returns the current time of the engine's clock.
func (e *Engine) Now() time.Time {
	return e.clock()
}

// Stats returns a snapshot of the connection pool.
func (e *Engine) Stats() PoolStats {
	return PoolStats(e.db.Stats())
}

// Close closes the underlying database handle(s).
func (e *Engine) Close() {
	e.db.Close()
}

// Conn is one connection acquired from the engine. Release it when done; Release is idempotent.
type Conn struct {
	engine  *Engine
	conn    adapters.DBConn
	release sync.Once
}

// Acquire takes a connection from the primary database, retrying with exponential backoff.
// After the last failed attempt it returns librarystore.ErrConnectionFailure joined with the cause.
func (e *Engine) Acquire(ctx context.Context) (*Conn, error) {
	return e.acquire(ctx, false)
}

func (e *Engine) acquire(ctx context.Context, readOnly bool) (*Conn, error) {
	start := time.Now()

	conn, err := e.acquireWithRetry(ctx, readOnly)
	if err != nil {
		return nil, err
	}

	e.recordAcquireMetrics(ctx, time.Since(start))

	return &Conn{engine: e, conn: conn}, nil
}

// Release hands the connection back to the pool.
func (c *Conn) Release() {
	c.release.Do(c.conn.Release)
}

// Execute runs a statement on this connection. Writes run inside a short transaction that is
// rolled back if the statement fails.
func (c *Conn) Execute(ctx context.Context, stmt Statement, mode librarystore.FetchMode, scan ScanFunc) (Result, error) {
	if err := validateFetchMode(mode, scan); err != nil {
		return Result{}, err
	}

	if mode != librarystore.FetchNone {
		return c.engine.run(ctx, c.conn, stmt, mode, scan)
	}

	tx, beginErr := c.conn.Begin(ctx)
	if beginErr != nil {
		c.engine.logErrorContext(ctx, logMsgBeginFailed, beginErr)
		return Result{}, errors.Join(librarystore.ErrTransactionFailed, classifyDriverError(beginErr))
	}

	result, err := c.engine.run(ctx, tx, stmt, mode, nil)
	if err != nil {
		if rollbackErr := tx.Rollback(context.WithoutCancel(ctx)); rollbackErr != nil {
			c.engine.logErrorContext(ctx, logMsgRollbackFailed, rollbackErr)
		}

		return Result{}, err
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		c.engine.logErrorContext(ctx, logMsgCommitFailed, commitErr)
		return Result{}, errors.Join(librarystore.ErrTransactionFailed, classifyDriverError(commitErr))
	}

	return result, nil
}

// Execute acquires a connection, runs the statement and releases the connection on every path.
//
// Fetch modes:
//   - FetchNone: a write, reported as rows affected; a failure rolls the write back
//   - FetchOne: scan is called for the first row only
//   - FetchAll: scan is called for every row
//
// Reads go to the replica (if one is configured) when ctx carries eventual consistency.
func (e *Engine) Execute(
	ctx context.Context,
	stmt Statement,
	mode librarystore.FetchMode,
	scan ScanFunc,
) (Result, error) {

	if err := validateFetchMode(mode, scan); err != nil {
		return Result{}, err
	}

	tracer, ctx := e.startExecuteTracing(ctx, mode)
	start := time.Now()

	readOnly := mode != librarystore.FetchNone &&
		librarystore.GetConsistencyLevel(ctx) == librarystore.EventualConsistency

	conn, err := e.acquire(ctx, readOnly)
	if err != nil {
		tracer.finishError(errorType(err), time.Since(start))
		return Result{}, err
	}
	defer conn.Release()

	result, err := conn.Execute(ctx, stmt, mode, scan)
	if err != nil {
		tracer.finishError(errorType(err), time.Since(start))
		return Result{}, err
	}

	tracer.finishSuccess(result, time.Since(start))

	return result, nil
}

// Exec runs a write and returns the number of affected rows.
func (e *Engine) Exec(ctx context.Context, stmt Statement) (int64, error) {
	result, err := e.Execute(ctx, stmt, librarystore.FetchNone, nil)
	return result.RowsAffected, err
}

// QueryOne scans the first row of the result and reports whether there was one.
func (e *Engine) QueryOne(ctx context.Context, stmt Statement, scan ScanFunc) (bool, error) {
	result, err := e.Execute(ctx, stmt, librarystore.FetchOne, scan)
	return result.RowsRead > 0, err
}

// QueryAll scans every row of the result and returns how many there were.
func (e *Engine) QueryAll(ctx context.Context, stmt Statement, scan ScanFunc) (int, error) {
	result, err := e.Execute(ctx, stmt, librarystore.FetchAll, scan)
	return result.RowsRead, err
}

// Insert runs an insert statement in its own transaction and returns the generated id.
func (e *Engine) Insert(ctx context.Context, stmt *goqu.InsertDataset, idColumn string) (int64, error) {
	var id int64

	err := e.InTransaction(ctx, func(ctx context.Context, tx *Tx) error {
		var insertErr error
		id, insertErr = tx.Insert(ctx, stmt, idColumn)

		return insertErr
	})

	return id, err
}

func validateFetchMode(mode librarystore.FetchMode, scan ScanFunc) error {
	switch mode {
	case librarystore.FetchNone:
		return nil
	case librarystore.FetchOne, librarystore.FetchAll:
		if scan == nil {
			return librarystore.ErrMissingScanFunc
		}

		return nil
	default:
		return librarystore.ErrInvalidFetchMode
	}
}

// run renders the statement and executes it on q according to the fetch mode.
func (e *Engine) run(
	ctx context.Context,
	q adapters.Querier,
	stmt Statement,
	mode librarystore.FetchMode,
	scan ScanFunc,
) (Result, error) {

	if mode == librarystore.FetchNone {
		dbResult, err := e.exec(ctx, q, stmt)
		if err != nil {
			return Result{}, err
		}

		rowsAffected, rowsAffectedErr := dbResult.RowsAffected()
		if rowsAffectedErr != nil {
			e.logErrorContext(ctx, logMsgRowsAffectedFailed, rowsAffectedErr)
			return Result{}, errors.Join(librarystore.ErrGettingRowsAffectedFailed, rowsAffectedErr)
		}

		return Result{RowsAffected: rowsAffected}, nil
	}

	return e.query(ctx, q, stmt, mode, scan)
}

func (e *Engine) exec(ctx context.Context, q adapters.Querier, stmt Statement) (adapters.DBResult, error) {
	sqlQuery, args, buildErr := e.toSQL(ctx, stmt)
	if buildErr != nil {
		return nil, buildErr
	}

	start := time.Now()
	dbResult, execErr := q.Exec(ctx, sqlQuery, args...)
	duration := time.Since(start)
	e.logQueryWithDuration(ctx, sqlQuery, librarystore.FetchNone, duration)

	if execErr != nil {
		e.recordStatementMetrics(ctx, librarystore.FetchNone, duration, execErr)
		e.logErrorContext(ctx, logMsgDBExecFailed, execErr, logAttrQuery, sqlQuery)

		return nil, errors.Join(librarystore.ErrExecutingFailed, classifyDriverError(execErr))
	}

	e.recordStatementMetrics(ctx, librarystore.FetchNone, duration, nil)

	return dbResult, nil
}

func (e *Engine) query(
	ctx context.Context,
	q adapters.Querier,
	stmt Statement,
	mode librarystore.FetchMode,
	scan ScanFunc,
) (Result, error) {

	sqlQuery, args, buildErr := e.toSQL(ctx, stmt)
	if buildErr != nil {
		return Result{}, buildErr
	}

	start := time.Now()
	rows, queryErr := q.Query(ctx, sqlQuery, args...)
	if queryErr != nil {
		duration := time.Since(start)
		e.logQueryWithDuration(ctx, sqlQuery, mode, duration)
		e.recordStatementMetrics(ctx, mode, duration, queryErr)
		e.logErrorContext(ctx, logMsgDBQueryFailed, queryErr, logAttrQuery, sqlQuery)

		return Result{}, errors.Join(librarystore.ErrQueryingFailed, classifyDriverError(queryErr))
	}
	defer e.closeRows(ctx, rows)

	rowsRead := 0

	for rows.Next() {
		if scanErr := scan(rows); scanErr != nil {
			e.logErrorContext(ctx, logMsgScanRowFailed, scanErr, logAttrQuery, sqlQuery)
			return Result{}, errors.Join(librarystore.ErrScanningDBRowFailed, scanErr)
		}

		rowsRead++

		if mode == librarystore.FetchOne {
			break
		}
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		e.recordStatementMetrics(ctx, mode, time.Since(start), rowsErr)
		e.logErrorContext(ctx, logMsgDBQueryFailed, rowsErr, logAttrQuery, sqlQuery)

		return Result{}, errors.Join(librarystore.ErrQueryingFailed, classifyDriverError(rowsErr))
	}

	duration := time.Since(start)
	e.logQueryWithDuration(ctx, sqlQuery, mode, duration)
	e.recordStatementMetrics(ctx, mode, duration, nil)

	return Result{RowsRead: rowsRead}, nil
}

// toSQL renders a statement. goqu datasets are always rendered with bound parameters.
func (e *Engine) toSQL(ctx context.Context, stmt Statement) (string, []any, error) {
	switch ds := stmt.(type) {
	case *goqu.SelectDataset:
		stmt = ds.Prepared(true)
	case *goqu.InsertDataset:
		stmt = ds.Prepared(true)
	case *goqu.UpdateDataset:
		stmt = ds.Prepared(true)
	case *goqu.DeleteDataset:
		stmt = ds.Prepared(true)
	}

	sqlQuery, args, err := stmt.ToSQL()
	if err != nil {
		e.logErrorContext(ctx, logMsgBuildQueryFailed, err)
		return "", nil, errors.Join(librarystore.ErrBuildingQueryFailed, err)
	}

	return sqlQuery, args, nil
}

// closeRows safely closes database rows and logs any errors.
func (e *Engine) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		e.logWarnContext(ctx, logMsgCloseRowsFailed, logAttrError, closeErr.Error())
	}
}

// Raw wraps a literal SQL statement with its arguments.
// Use ? placeholders for MySQL and SQLite and $n placeholders for PostgreSQL.
func Raw(query string, args ...any) Statement {
	return rawStatement{query: query, args: args}
}

type rawStatement struct {
	query string
	args  []any
}

func (r rawStatement) ToSQL() (string, []any, error) {
	return r.query, r.args, nil
}
