package sqlengine

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/AntonStoeckl/librarydesk/librarystore"
)

const (
	logMsgBuildQueryFailed      = "failed to build sql statement"
	logMsgDBQueryFailed         = "database query execution failed"
	logMsgDBExecFailed          = "database statement execution failed"
	logMsgCloseRowsFailed       = "failed to close database rows"
	logMsgScanRowFailed         = "failed to scan database row"
	logMsgRowsAffectedFailed    = "failed to get rows affected count"
	logMsgInsertIDFailed        = "failed to get id of inserted row"
	logMsgBeginFailed           = "failed to begin transaction"
	logMsgCommitFailed          = "failed to commit transaction"
	logMsgRollbackFailed        = "failed to roll back transaction"
	logMsgPartialWrite          = "rollback failed after writes, data may be inconsistent"
	logMsgAcquireRetry          = "retrying connection acquisition"
	logMsgAcquireFailed         = "could not acquire a database connection"
	logMsgTransactionCommitted  = "transaction committed"
	logMsgTransactionRolledBack = "transaction rolled back"
	logMsgTableCreated          = "table created"
	logMsgMigrationCompleted    = "migration completed"
	logMsgSQLExecuted           = "executed sql for: "
	logMsgOperation             = "sqlengine operation: "
	logAttrError                = "error"
	logAttrCause                = "cause"
	logAttrQuery                = "query"
	logAttrDurationMS           = "duration_ms"
	logAttrDelayMS              = "delay_ms"
	logAttrAttempt              = "attempt"
	logAttrAttempts             = "attempts"
	logAttrWrites               = "writes"
	logAttrTable                = "table"
	logAttrDialect              = "dialect"
)

const (
	metricStatementDuration  = "sqlengine_statement_duration_seconds"
	metricStatementRows      = "sqlengine_statement_rows"
	metricAcquireDuration    = "sqlengine_acquire_duration_seconds"
	metricAcquireRetries     = "sqlengine_acquire_retries_total"
	metricAcquireRetryDelay  = "sqlengine_acquire_retry_delay_seconds"
	metricConnectionFailures = "sqlengine_connection_failures_total"
	metricDatabaseErrors     = "sqlengine_database_errors_total"
	metricTransactions       = "sqlengine_transactions_total"
	metricTransactionTime    = "sqlengine_transaction_duration_seconds"

	spanNameExecute     = "sqlengine.execute"
	spanNameTransaction = "sqlengine.transaction"

	spanAttrOperation    = "operation"
	spanAttrFetchMode    = "fetch_mode"
	spanAttrDialect      = "dialect"
	spanAttrErrorType    = "error_type"
	spanAttrRowsAffected = "rows_affected"
	spanAttrRowsRead     = "rows_read"
	spanAttrDurationMS   = "duration_ms"

	labelStatus  = "status"
	labelAttempt = "attempt_number"
	labelOutcome = "outcome"

	operationExecute     = "execute"
	operationTransaction = "transaction"
	operationAcquire     = "acquire"

	statusSuccess = "success"
	statusError   = "error"

	errorTypeTransaction = "transaction"

	txOutcomeCommitted    = "committed"
	txOutcomeRolledBack   = "rolled_back"
	txOutcomePartialWrite = "partial_write"
	txOutcomeFailed       = "failed"
)

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

// logQueryWithDuration logs SQL statements with execution time at debug level.
func (e *Engine) logQueryWithDuration(
	ctx context.Context,
	sqlQuery string,
	mode librarystore.FetchMode,
	duration time.Duration,
) {

	args := []any{logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery}

	if e.logger != nil {
		e.logger.Debug(logMsgSQLExecuted+mode.String(), args...)
	}

	if e.contextualLogger != nil {
		e.contextualLogger.DebugContext(ctx, logMsgSQLExecuted+mode.String(), args...)
	}
}

// logOperation logs operational information at info level.
func (e *Engine) logOperation(ctx context.Context, action string, args ...any) {
	if e.logger != nil {
		e.logger.Info(logMsgOperation+action, args...)
	}

	if e.contextualLogger != nil {
		e.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
	}
}

// logWarnContext logs non-critical issues at warn level.
func (e *Engine) logWarnContext(ctx context.Context, message string, args ...any) {
	if e.logger != nil {
		e.logger.Warn(message, args...)
	}

	if e.contextualLogger != nil {
		e.contextualLogger.WarnContext(ctx, message, args...)
	}
}

// logErrorContext logs error information at the error level.
func (e *Engine) logErrorContext(ctx context.Context, message string, err error, args ...any) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if e.logger != nil {
		e.logger.Error(message, allArgs...)
	}

	if e.contextualLogger != nil {
		e.contextualLogger.ErrorContext(ctx, message, allArgs...)
	}
}

func (e *Engine) recordDuration(ctx context.Context, metric string, duration time.Duration, labels map[string]string) {
	if e.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := e.metricsCollector.(librarystore.ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metric, duration, labels)
		return
	}

	e.metricsCollector.RecordDuration(metric, duration, labels)
}

func (e *Engine) incrementCounter(ctx context.Context, metric string, labels map[string]string) {
	if e.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := e.metricsCollector.(librarystore.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metric, labels)
		return
	}

	e.metricsCollector.IncrementCounter(metric, labels)
}

func (e *Engine) recordValue(ctx context.Context, metric string, value float64, labels map[string]string) {
	if e.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := e.metricsCollector.(librarystore.ContextualMetricsCollector); ok {
		contextualCollector.RecordValueContext(ctx, metric, value, labels)
		return
	}

	e.metricsCollector.RecordValue(metric, value, labels)
}

// recordStatementMetrics records the duration of one statement and, on failure, a database error.
func (e *Engine) recordStatementMetrics(ctx context.Context, mode librarystore.FetchMode, duration time.Duration, err error) {
	status := statusSuccess
	if err != nil {
		status = statusError
	}

	e.recordDuration(ctx, metricStatementDuration, duration, map[string]string{
		spanAttrFetchMode: mode.String(),
		labelStatus:       status,
	})

	if err != nil {
		e.incrementCounter(ctx, metricDatabaseErrors, map[string]string{
			spanAttrOperation: mode.String(),
			spanAttrErrorType: errorType(classifyDriverError(err)),
		})
	}
}

func (e *Engine) recordRowsMetrics(ctx context.Context, mode librarystore.FetchMode, result Result) {
	rows := float64(result.RowsRead)
	if mode == librarystore.FetchNone {
		rows = float64(result.RowsAffected)
	}

	e.recordValue(ctx, metricStatementRows, rows, map[string]string{spanAttrFetchMode: mode.String()})
}

func (e *Engine) recordAcquireMetrics(ctx context.Context, duration time.Duration) {
	e.recordDuration(ctx, metricAcquireDuration, duration, map[string]string{
		spanAttrOperation: operationAcquire,
		labelStatus:       statusSuccess,
	})
}

// recordRetryMetrics tracks one more acquisition attempt and the backoff before it.
func (e *Engine) recordRetryMetrics(ctx context.Context, attempt int, delay time.Duration) {
	labels := map[string]string{labelAttempt: strconv.Itoa(attempt + 1)}

	e.incrementCounter(ctx, metricAcquireRetries, labels)
	e.recordDuration(ctx, metricAcquireRetryDelay, delay, labels)
}

func (e *Engine) recordConnectionFailureMetrics(ctx context.Context, attempts int) {
	e.incrementCounter(ctx, metricConnectionFailures, map[string]string{
		spanAttrOperation: operationAcquire,
		logAttrAttempts:   strconv.Itoa(attempts),
	})
}

func (e *Engine) recordTransactionMetrics(ctx context.Context, outcome string, duration time.Duration) {
	labels := map[string]string{labelOutcome: outcome}

	e.incrementCounter(ctx, metricTransactions, labels)
	e.recordDuration(ctx, metricTransactionTime, duration, labels)
}

// === Tracing Observer Pattern ===

// tracingObserver encapsulates the span lifecycle of one engine operation.
type tracingObserver struct {
	e    *Engine
	mode *librarystore.FetchMode
	ctx  context.Context
	span librarystore.SpanContext
}

func (e *Engine) startExecuteTracing(ctx context.Context, mode librarystore.FetchMode) (*tracingObserver, context.Context) {
	observer, newCtx := e.startTracing(ctx, spanNameExecute, map[string]string{
		spanAttrOperation: operationExecute,
		spanAttrFetchMode: mode.String(),
		spanAttrDialect:   e.dialect,
	})
	observer.mode = &mode

	return observer, newCtx
}

func (e *Engine) startTransactionTracing(ctx context.Context) (*tracingObserver, context.Context) {
	return e.startTracing(ctx, spanNameTransaction, map[string]string{
		spanAttrOperation: operationTransaction,
		spanAttrDialect:   e.dialect,
	})
}

func (e *Engine) startTracing(ctx context.Context, name string, attrs map[string]string) (*tracingObserver, context.Context) {
	observer := &tracingObserver{e: e, ctx: ctx}

	if e.tracingCollector == nil {
		return observer, ctx
	}

	newCtx, span := e.tracingCollector.StartSpan(ctx, name, attrs)
	observer.ctx = newCtx
	observer.span = span

	return observer, newCtx
}

// finishSuccess completes the span and records row counts for statements.
func (o *tracingObserver) finishSuccess(result Result, duration time.Duration) {
	if o.mode != nil {
		o.e.recordRowsMetrics(o.ctx, *o.mode, result)
	}

	if o.span == nil {
		return
	}

	attrs := map[string]string{
		spanAttrRowsAffected: strconv.FormatInt(result.RowsAffected, 10),
		spanAttrRowsRead:     strconv.Itoa(result.RowsRead),
		spanAttrDurationMS:   fmt.Sprintf("%.2f", toMilliseconds(duration)),
	}

	o.span.SetStatus(statusSuccess)
	o.e.tracingCollector.FinishSpan(o.span, statusSuccess, attrs)
}

// finishError completes the span with error details.
func (o *tracingObserver) finishError(errType string, duration time.Duration) {
	if o.span == nil {
		return
	}

	o.span.SetStatus(statusError)
	o.span.AddAttribute(spanAttrErrorType, errType)

	o.e.tracingCollector.FinishSpan(o.span, statusError, map[string]string{
		spanAttrErrorType:  errType,
		spanAttrDurationMS: fmt.Sprintf("%.2f", toMilliseconds(duration)),
	})
}
