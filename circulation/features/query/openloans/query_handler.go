package openloans

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/AntonStoeckl/librarydesk/circulation/shared/core"
	"github.com/AntonStoeckl/librarydesk/librarystore/sqlengine"
)

// Database defines the interface needed by the QueryHandler.
type Database interface {
	Builder() goqu.DialectWrapper
	Now() time.Time
	QueryAll(ctx context.Context, stmt sqlengine.Statement, scan sqlengine.ScanFunc) (int, error)
}

// Loan is an open borrowing record.
type Loan struct {
	core.BorrowingRecord
	DaysBorrowed int
	Status       core.BorrowingStatus
}

// Loans is the result of the query, oldest loan first.
type Loans struct {
	Loans []Loan
	Count int
}

// QueryHandler answers the query.
type QueryHandler struct {
	db Database
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(db Database) QueryHandler {
	return QueryHandler{db: db}
}

// Handle lists the open loans.
func (h QueryHandler) Handle(ctx context.Context, _ Query) (Loans, error) {
	today := core.ToDate(h.db.Now())

	stmt := h.db.Builder().
		From(goqu.T(sqlengine.TableBorrowing).As("b")).
		Join(goqu.T(sqlengine.TableMembers).As("m"), goqu.On(goqu.I("b.member_id").Eq(goqu.I("m.member_id")))).
		Join(goqu.T(sqlengine.TableBooks).As("bk"), goqu.On(goqu.I("b.book_id").Eq(goqu.I("bk.book_id")))).
		Select(
			goqu.I("b.borrow_id"),
			goqu.I("b.member_id"),
			goqu.I("b.book_id"),
			goqu.I("b.borrow_date"),
			goqu.I("b.due_date"),
			goqu.I("m.name"),
			goqu.I("bk.title"),
		).
		Where(goqu.I("b.return_date").IsNull()).
		Order(goqu.I("b.borrow_date").Asc(), goqu.I("b.borrow_id").Asc())

	loans := make([]Loan, 0)

	_, err := h.db.QueryAll(ctx, stmt, func(row sqlengine.Row) error {
		var record core.BorrowingRecord
		if err := row.Scan(
			&record.BorrowID,
			&record.MemberID,
			&record.BookID,
			&record.BorrowDate,
			&record.DueDate,
			&record.MemberName,
			&record.BookTitle,
		); err != nil {
			return err
		}

		loans = append(loans, Loan{
			BorrowingRecord: record,
			DaysBorrowed:    record.DaysBorrowed(today),
			Status:          record.StatusAt(today),
		})

		return nil
	})
	if err != nil {
		return Loans{}, err
	}

	return Loans{Loans: loans, Count: len(loans)}, nil
}
