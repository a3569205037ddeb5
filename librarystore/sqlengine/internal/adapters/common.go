package adapters

import "database/sql"

// stdRowsIterator is satisfied by *sql.Rows and *sqlx.Rows.
type stdRowsIterator interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// stdRows wraps standard library compatible rows to implement the DBRows interface.
type stdRows struct {
	rows stdRowsIterator
}

// Next advances to the next row.
func (s *stdRows) Next() bool {
	return s.rows.Next()
}

// Scan copies row values into provided destinations.
func (s *stdRows) Scan(dest ...any) error {
	return s.rows.Scan(dest...)
}

// Err returns the error, if any, that was encountered during iteration.
func (s *stdRows) Err() error {
	return s.rows.Err()
}

// Close closes the rows iterator.
func (s *stdRows) Close() error {
	return s.rows.Close()
}

// stdResult wraps standard library sql.Result to implement the DBResult interface.
type stdResult struct {
	result sql.Result
}

// RowsAffected returns the number of rows affected by the command.
func (s *stdResult) RowsAffected() (int64, error) {
	return s.result.RowsAffected()
}

// LastInsertId returns the id generated for an inserted row.
func (s *stdResult) LastInsertId() (int64, error) {
	return s.result.LastInsertId()
}

// statsFromDBStats maps sql.DBStats onto PoolStats.
func statsFromDBStats(stats sql.DBStats) PoolStats {
	return PoolStats{
		MaxConns:      stats.MaxOpenConnections,
		TotalConns:    stats.OpenConnections,
		IdleConns:     stats.Idle,
		AcquiredConns: stats.InUse,
	}
}
