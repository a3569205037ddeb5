package sqlengine

import (
	"context"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/AntonStoeckl/librarydesk/librarystore"
)

// PostgreSQL SQLSTATE class 23: integrity constraint violation.
const pgIntegrityConstraintClass = "23"

// MySQL server error numbers for constraint violations.
const (
	mysqlErrDuplicateEntry     = 1062
	mysqlErrRowIsReferenced    = 1451
	mysqlErrNoReferencedRow    = 1452
	mysqlErrBadNull            = 1048
	mysqlErrCheckConstraint    = 3819
	mysqlErrRowIsReferencedOld = 1217
	mysqlErrNoReferencedRowOld = 1216
)

// classifyDriverError joins constraint violations of all supported drivers with
// librarystore.ErrConstraintViolation. Other errors are returned unchanged.
func classifyDriverError(err error) error {
	if IsConstraintViolation(err) {
		return errors.Join(librarystore.ErrConstraintViolation, err)
	}

	return err
}

// IsConstraintViolation reports whether err is a unique, foreign key, not null or check violation
// reported by pgx, lib/pq, go-sql-driver/mysql or go-sqlite3.
func IsConstraintViolation(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, librarystore.ErrConstraintViolation) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, pgIntegrityConstraintClass)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Class() == pgIntegrityConstraintClass
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case mysqlErrDuplicateEntry, mysqlErrRowIsReferenced, mysqlErrNoReferencedRow,
			mysqlErrBadNull, mysqlErrCheckConstraint, mysqlErrRowIsReferencedOld, mysqlErrNoReferencedRowOld:
			return true
		}

		return false
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}

	return false
}

// errorType extracts a string representation of the error type for metrics and span labels.
func errorType(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, librarystore.ErrPartialWrite):
		return "partial_write"
	case errors.Is(err, librarystore.ErrConnectionFailure):
		return "connection_failure"
	case errors.Is(err, librarystore.ErrConstraintViolation):
		return "constraint_violation"
	case errors.Is(err, context.Canceled):
		return "context_canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "context_deadline_exceeded"
	case errors.Is(err, librarystore.ErrBuildingQueryFailed):
		return "build_query"
	case errors.Is(err, librarystore.ErrScanningDBRowFailed):
		return "scan_row"
	default:
		return "other"
	}
}
