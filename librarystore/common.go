package librarystore

import (
	"errors"
)

var (
	// ErrNilDatabaseConnection is returned when a nil database handle is supplied to an engine constructor.
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")

	// ErrUnsupportedDialect is returned when an engine is built for an SQL dialect it can't speak.
	ErrUnsupportedDialect = errors.New("unsupported sql dialect")

	// ErrConnectionFailure is returned when no connection could be acquired after all retry attempts.
	ErrConnectionFailure = errors.New("could not acquire a database connection")

	// ErrConstraintViolation is returned when the database rejected a write because of a constraint.
	ErrConstraintViolation = errors.New("database constraint violated")

	// ErrPartialWrite is returned when a transaction failed after a successful write and could not be rolled back.
	ErrPartialWrite = errors.New("partial write: transaction could not be rolled back")

	// ErrBuildingQueryFailed is returned when a statement could not be rendered to SQL.
	ErrBuildingQueryFailed = errors.New("building query failed")

	// ErrQueryingFailed is returned when a read statement failed.
	ErrQueryingFailed = errors.New("querying failed")

	// ErrExecutingFailed is returned when a write statement failed.
	ErrExecutingFailed = errors.New("executing statement failed")

	// ErrScanningDBRowFailed is returned when a result row could not be scanned.
	ErrScanningDBRowFailed = errors.New("scanning db row failed")

	// ErrGettingRowsAffectedFailed is returned when the driver could not report affected rows.
	ErrGettingRowsAffectedFailed = errors.New("getting rows affected failed")

	// ErrGettingInsertIDFailed is returned when the id of an inserted row could not be determined.
	ErrGettingInsertIDFailed = errors.New("getting id of inserted row failed")

	// ErrTransactionFailed is returned when a transaction could not be started or committed.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrInvalidFetchMode is returned for fetch modes the engine doesn't know.
	ErrInvalidFetchMode = errors.New("invalid fetch mode")

	// ErrMissingScanFunc is returned when a read is executed without a scan function.
	ErrMissingScanFunc = errors.New("scan function must not be nil for reads")
)

// FetchMode tells the engine what a statement returns.
type FetchMode int

const (
	// FetchNone executes a write and reports the number of affected rows.
	FetchNone FetchMode = iota

	// FetchOne reads at most one row.
	FetchOne

	// FetchAll reads every row of the result.
	FetchAll
)

// String provides a string representation of FetchMode for logging and metrics labels.
func (m FetchMode) String() string {
	switch m {
	case FetchNone:
		return "exec"
	case FetchOne:
		return "fetch_one"
	case FetchAll:
		return "fetch_all"
	default:
		return "unknown"
	}
}
