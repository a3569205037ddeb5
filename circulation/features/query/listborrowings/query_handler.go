package listborrowings

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/AntonStoeckl/librarydesk/circulation/shared/core"
	"github.com/AntonStoeckl/librarydesk/librarystore/sqlengine"
)

// Database defines the interface needed by the QueryHandler.
type Database interface {
	Builder() goqu.DialectWrapper
	Now() time.Time
	QueryAll(ctx context.Context, stmt sqlengine.Statement, scan sqlengine.ScanFunc) (int, error)
}

// Entry is a borrowing record with its status on the day of the query.
type Entry struct {
	core.BorrowingRecord
	Status core.BorrowingStatus
}

// Borrowings is the result of the query, newest first.
type Borrowings struct {
	Entries []Entry
	Count   int
}

// QueryHandler answers the query.
type QueryHandler struct {
	db Database
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(db Database) QueryHandler {
	return QueryHandler{db: db}
}

// Handle lists the matching borrowing records.
func (h QueryHandler) Handle(ctx context.Context, query Query) (Borrowings, error) {
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
			goqu.I("b.return_date"),
			goqu.I("m.name"),
			goqu.I("bk.title"),
		).
		Where(statusCondition(query.Status, today)...).
		Order(goqu.I("b.borrow_date").Desc(), goqu.I("b.borrow_id").Desc())

	if query.MemberName != "" {
		stmt = stmt.Where(goqu.I("m.name").ILike("%" + query.MemberName + "%"))
	}

	if query.Limit > 0 {
		stmt = stmt.Limit(uint(query.Limit))
	}

	entries := make([]Entry, 0)

	_, err := h.db.QueryAll(ctx, stmt, func(row sqlengine.Row) error {
		var record core.BorrowingRecord
		if err := row.Scan(
			&record.BorrowID,
			&record.MemberID,
			&record.BookID,
			&record.BorrowDate,
			&record.DueDate,
			&record.ReturnDate,
			&record.MemberName,
			&record.BookTitle,
		); err != nil {
			return err
		}

		entries = append(entries, Entry{BorrowingRecord: record, Status: record.StatusAt(today)})

		return nil
	})
	if err != nil {
		return Borrowings{}, err
	}

	return Borrowings{Entries: entries, Count: len(entries)}, nil
}

// statusCondition mirrors core.BorrowingRecord.StatusAt as SQL predicates. Today is bound as a
// date literal so that no session time zone shifts the comparison with the DATE column.
func statusCondition(filter core.StatusFilter, today time.Time) []exp.Expression {
	switch filter {
	case core.FilterBorrowed:
		return []exp.Expression{goqu.I("b.return_date").IsNull()}
	case core.FilterReturned:
		return []exp.Expression{goqu.I("b.return_date").IsNotNull()}
	case core.FilterOverdue:
		return []exp.Expression{
			goqu.I("b.return_date").IsNull(),
			goqu.I("b.due_date").IsNotNull(),
			goqu.I("b.due_date").Lt(today.Format(time.DateOnly)),
		}
	default:
		return nil
	}
}
