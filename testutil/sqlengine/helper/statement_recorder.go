package helper

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/AntonStoeckl/librarydesk/librarystore/sqlengine"
)

// StatementRecorder stands in for the engine in query handlers and renders the statements it
// receives in the given dialect instead of running them.
type StatementRecorder struct {
	dialect string
	now     time.Time

	// SQL is the last statement with its arguments interpolated.
	SQL string
	// Args are the arguments of the last statement when rendered as a prepared statement.
	Args []any
}

// NewStatementRecorder renders statements for dialect ("postgres", "mysql" or "sqlite3").
func NewStatementRecorder(dialect string) *StatementRecorder {
	return &StatementRecorder{dialect: dialect, now: time.Now()}
}

// WithNow fixes the time reported by Now.
func (r *StatementRecorder) WithNow(now time.Time) *StatementRecorder {
	r.now = now
	return r
}

func (r *StatementRecorder) Builder() goqu.DialectWrapper {
	return goqu.Dialect(r.dialect)
}

func (r *StatementRecorder) Now() time.Time {
	return r.now
}

// QueryAll records the statement and reports zero rows.
func (r *StatementRecorder) QueryAll(_ context.Context, stmt sqlengine.Statement, _ sqlengine.ScanFunc) (int, error) {
	return 0, r.record(stmt)
}

func (r *StatementRecorder) record(stmt sqlengine.Statement) error {
	sql, _, err := stmt.ToSQL()
	if err != nil {
		return err
	}

	r.SQL = sql
	r.Args = nil

	if ds, ok := stmt.(*goqu.SelectDataset); ok {
		_, args, err := ds.Prepared(true).ToSQL()
		if err != nil {
			return err
		}

		r.Args = args
	}

	return nil
}
