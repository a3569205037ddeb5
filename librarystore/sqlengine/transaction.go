package sqlengine

import (
	"context"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/AntonStoeckl/librarydesk/librarystore"
	"github.com/AntonStoeckl/librarydesk/librarystore/sqlengine/internal/adapters"
)

// TxFunc is the body of a transaction. Returning an error rolls every write of the transaction back.
type TxFunc func(ctx context.Context, tx *Tx) error

// Tx is an open transaction on one connection. It must not be used after the TxFunc returned.
type Tx struct {
	engine *Engine
	tx     adapters.DBTx
	writes int
}

// InTransaction runs fn inside a transaction on a connection from the primary database.
//
// If fn fails, the transaction is rolled back and fn's error is returned. If the rollback itself
// fails after at least one write went through, the returned error also matches
// librarystore.ErrPartialWrite. A failed commit returns librarystore.ErrTransactionFailed.
func (e *Engine) InTransaction(ctx context.Context, fn TxFunc) error {
	tracer, ctx := e.startTransactionTracing(ctx)
	start := time.Now()

	conn, err := e.acquire(ctx, false)
	if err != nil {
		tracer.finishError(errorType(err), time.Since(start))
		return err
	}
	defer conn.Release()

	dbTx, beginErr := conn.conn.Begin(ctx)
	if beginErr != nil {
		e.logErrorContext(ctx, logMsgBeginFailed, beginErr)
		tracer.finishError(errorTypeTransaction, time.Since(start))

		return errors.Join(librarystore.ErrTransactionFailed, classifyDriverError(beginErr))
	}

	tx := &Tx{engine: e, tx: dbTx}

	if fnErr := fn(ctx, tx); fnErr != nil {
		rollbackErr := e.rollback(ctx, tx, fnErr)
		e.recordTransactionMetrics(ctx, transactionOutcome(rollbackErr), time.Since(start))
		tracer.finishError(errorType(rollbackErr), time.Since(start))

		return rollbackErr
	}

	if commitErr := dbTx.Commit(ctx); commitErr != nil {
		e.logErrorContext(ctx, logMsgCommitFailed, commitErr, logAttrWrites, tx.writes)
		e.recordTransactionMetrics(ctx, txOutcomeFailed, time.Since(start))
		tracer.finishError(errorTypeTransaction, time.Since(start))

		return errors.Join(librarystore.ErrTransactionFailed, classifyDriverError(commitErr))
	}

	duration := time.Since(start)
	e.logOperation(ctx, logMsgTransactionCommitted, logAttrWrites, tx.writes, logAttrDurationMS, toMilliseconds(duration))
	e.recordTransactionMetrics(ctx, txOutcomeCommitted, duration)
	tracer.finishSuccess(Result{RowsAffected: int64(tx.writes)}, duration)

	return nil
}

// ExecMany runs the statements in order inside one transaction and returns the summed affected rows.
// If one statement fails, none of them stays applied.
func (e *Engine) ExecMany(ctx context.Context, stmts ...Statement) (int64, error) {
	var total int64

	err := e.InTransaction(ctx, func(ctx context.Context, tx *Tx) error {
		for _, stmt := range stmts {
			affected, err := tx.Exec(ctx, stmt)
			if err != nil {
				return err
			}

			total += affected
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return total, nil
}

// rollback undoes the transaction after fn failed with cause.
func (e *Engine) rollback(ctx context.Context, tx *Tx, cause error) error {
	rollbackErr := tx.tx.Rollback(context.WithoutCancel(ctx))
	if rollbackErr == nil {
		e.logOperation(ctx, logMsgTransactionRolledBack, logAttrWrites, tx.writes, logAttrError, cause.Error())
		return cause
	}

	if tx.writes > 0 {
		e.logErrorContext(ctx, logMsgPartialWrite, rollbackErr, logAttrWrites, tx.writes, logAttrCause, cause.Error())
		return errors.Join(librarystore.ErrPartialWrite, cause, rollbackErr)
	}

	e.logWarnContext(ctx, logMsgRollbackFailed, logAttrError, rollbackErr.Error())

	return cause
}

func transactionOutcome(err error) string {
	if errors.Is(err, librarystore.ErrPartialWrite) {
		return txOutcomePartialWrite
	}

	return txOutcomeRolledBack
}

// Dialect returns the SQL dialect of the engine that opened the transaction.
func (t *Tx) Dialect() string {
	return t.engine.Dialect()
}

// Builder returns a goqu builder for the transaction's dialect.
func (t *Tx) Builder() goqu.DialectWrapper {
	return t.engine.Builder()
}

// SupportsRowLocks reports whether SELECT ... FOR UPDATE is available.
func (t *Tx) SupportsRowLocks() bool {
	return t.engine.SupportsRowLocks()
}

// Now returns the current time of the engine's clock.
func (t *Tx) Now() time.Time {
	return t.engine.Now()
}

// Writes returns the number of writes that changed at least one row so far.
func (t *Tx) Writes() int {
	return t.writes
}

// Execute runs a statement inside the transaction.
func (t *Tx) Execute(ctx context.Context, stmt Statement, mode librarystore.FetchMode, scan ScanFunc) (Result, error) {
	if err := validateFetchMode(mode, scan); err != nil {
		return Result{}, err
	}

	result, err := t.engine.run(ctx, t.tx, stmt, mode, scan)
	if err != nil {
		return Result{}, err
	}

	if mode == librarystore.FetchNone && result.RowsAffected > 0 {
		t.writes++
	}

	return result, nil
}

// Exec runs a write and returns the number of affected rows.
func (t *Tx) Exec(ctx context.Context, stmt Statement) (int64, error) {
	result, err := t.Execute(ctx, stmt, librarystore.FetchNone, nil)
	return result.RowsAffected, err
}

// QueryOne scans the first row of the result and reports whether there was one.
func (t *Tx) QueryOne(ctx context.Context, stmt Statement, scan ScanFunc) (bool, error) {
	result, err := t.Execute(ctx, stmt, librarystore.FetchOne, scan)
	return result.RowsRead > 0, err
}

// QueryAll scans every row of the result and returns how many there were.
func (t *Tx) QueryAll(ctx context.Context, stmt Statement, scan ScanFunc) (int, error) {
	result, err := t.Execute(ctx, stmt, librarystore.FetchAll, scan)
	return result.RowsRead, err
}

// Insert runs an insert of a single row and returns its generated id.
// PostgreSQL reports the id via RETURNING, MySQL and SQLite via LastInsertId.
func (t *Tx) Insert(ctx context.Context, stmt *goqu.InsertDataset, idColumn string) (int64, error) {
	if t.engine.dialect == DialectPostgres {
		return t.insertReturning(ctx, stmt, idColumn)
	}

	dbResult, err := t.engine.exec(ctx, t.tx, stmt)
	if err != nil {
		return 0, err
	}

	t.writes++

	id, idErr := dbResult.LastInsertId()
	if idErr != nil {
		t.engine.logErrorContext(ctx, logMsgInsertIDFailed, idErr)
		return 0, errors.Join(librarystore.ErrGettingInsertIDFailed, idErr)
	}

	return id, nil
}

func (t *Tx) insertReturning(ctx context.Context, stmt *goqu.InsertDataset, idColumn string) (int64, error) {
	var id int64

	found, err := t.QueryOne(ctx, stmt.Returning(goqu.C(idColumn)), func(row Row) error {
		return row.Scan(&id)
	})
	if err != nil {
		return 0, err
	}

	if !found {
		return 0, librarystore.ErrGettingInsertIDFailed
	}

	t.writes++

	return id, nil
}
