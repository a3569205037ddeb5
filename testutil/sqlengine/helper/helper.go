package helper

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/librarydesk/circulation/shared/core"
	"github.com/AntonStoeckl/librarydesk/circulation/shared/shell/config"
	"github.com/AntonStoeckl/librarydesk/librarystore/sqlengine"
)

const defaultTestPoolSize = 4

// FixedClock returns a clock that always reports the given day at noon UTC.
func FixedClock(year int, month time.Month, day int) func() time.Time {
	return func() time.Time {
		return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
	}
}

// OpenSQLiteDB opens a SQLite database file in a fresh temp dir with the given pool size.
func OpenSQLiteDB(t testing.TB, poolSize int) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", config.SQLiteDSN(filepath.Join(t.TempDir(), "library.db")))
	require.NoError(t, err, "error in arranging test database")

	db.SetMaxOpenConns(poolSize)
	db.SetMaxIdleConns(poolSize)

	return db
}

// GivenMigratedEngine returns a SQLite backed engine with the library schema in place.
// Retries are fast so that failure paths don't slow tests down.
func GivenMigratedEngine(t testing.TB, options ...sqlengine.Option) *sqlengine.Engine {
	t.Helper()

	return GivenMigratedEngineWithPoolSize(t, defaultTestPoolSize, options...)
}

// GivenMigratedEngineWithPoolSize is GivenMigratedEngine with an explicit pool size.
func GivenMigratedEngineWithPoolSize(t testing.TB, poolSize int, options ...sqlengine.Option) *sqlengine.Engine {
	t.Helper()

	allOptions := append([]sqlengine.Option{
		sqlengine.WithRetryOptions(sqlengine.WithBaseDelay(time.Millisecond)),
		sqlengine.WithAcquireTimeout(time.Second),
	}, options...)

	engine, err := sqlengine.NewEngineFromSQLDB(OpenSQLiteDB(t, poolSize), sqlengine.DialectSQLite, allOptions...)
	require.NoError(t, err, "error in arranging test engine")
	t.Cleanup(engine.Close)

	require.NoError(t, engine.Migrate(context.Background()), "error in arranging test schema")

	return engine
}

// GivenBook inserts a book and returns its id.
func GivenBook(t testing.TB, engine *sqlengine.Engine, title, author string, year, copies int) int64 {
	t.Helper()

	id, err := engine.Insert(
		context.Background(),
		engine.Builder().Insert(sqlengine.TableBooks).Rows(goqu.Record{
			"title":            title,
			"author":           author,
			"published_year":   year,
			"available_copies": copies,
		}),
		"book_id",
	)
	require.NoError(t, err, "error in arranging test book")

	return id
}

// GivenMember inserts an active member and returns its id.
func GivenMember(t testing.TB, engine *sqlengine.Engine, name, email string) int64 {
	t.Helper()

	id, err := engine.Insert(
		context.Background(),
		engine.Builder().Insert(sqlengine.TableMembers).Rows(goqu.Record{
			"name":      name,
			"email":     email,
			"join_date": Day(2024, time.January, 1),
			"status":    "Active",
		}),
		"member_id",
	)
	require.NoError(t, err, "error in arranging test member")

	return id
}

// GivenBorrowing inserts a borrowing record as it is, without touching the copy count.
// dueDate and returnDate may be nil.
func GivenBorrowing(
	t testing.TB,
	engine *sqlengine.Engine,
	memberID int64,
	bookID int64,
	borrowDate time.Time,
	dueDate *time.Time,
	returnDate *time.Time,
) int64 {
	t.Helper()

	record := goqu.Record{
		"member_id":   memberID,
		"book_id":     bookID,
		"borrow_date": borrowDate,
	}

	if dueDate != nil {
		record["due_date"] = *dueDate
	}

	if returnDate != nil {
		record["return_date"] = *returnDate
	}

	id, err := engine.Insert(
		context.Background(),
		engine.Builder().Insert(sqlengine.TableBorrowing).Rows(record),
		"borrow_id",
	)
	require.NoError(t, err, "error in arranging test borrowing")

	return id
}

// Day returns midnight UTC of the given date.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// AvailableCopies reads the copy count of a book.
func AvailableCopies(t testing.TB, engine *sqlengine.Engine, bookID int64) int {
	t.Helper()

	var copies int

	found, err := engine.QueryOne(
		context.Background(),
		engine.Builder().From(sqlengine.TableBooks).Select("available_copies").Where(goqu.C("book_id").Eq(bookID)),
		func(row sqlengine.Row) error { return row.Scan(&copies) },
	)
	require.NoError(t, err, "error in reading available copies")
	require.True(t, found, "book %d not found", bookID)

	return copies
}

// CountRows counts the rows of a table.
func CountRows(t testing.TB, engine *sqlengine.Engine, table string) int64 {
	t.Helper()

	var count int64

	_, err := engine.QueryOne(
		context.Background(),
		engine.Builder().From(table).Select(goqu.COUNT(goqu.Star())),
		func(row sqlengine.Row) error { return row.Scan(&count) },
	)
	require.NoError(t, err, "error in counting rows of %s", table)

	return count
}

// CountOpenBorrowings counts records of a member and a book that have no return date.
func CountOpenBorrowings(t testing.TB, engine *sqlengine.Engine, memberID, bookID int64) int64 {
	t.Helper()

	var count int64

	_, err := engine.QueryOne(
		context.Background(),
		engine.Builder().From(sqlengine.TableBorrowing).
			Select(goqu.COUNT(goqu.Star())).
			Where(
				goqu.C("member_id").Eq(memberID),
				goqu.C("book_id").Eq(bookID),
				goqu.C("return_date").IsNull(),
			),
		func(row sqlengine.Row) error { return row.Scan(&count) },
	)
	require.NoError(t, err, "error in counting open borrowings")

	return count
}

// ReturnDate reads the return date of a borrowing record, nil while the book is out.
func ReturnDate(t testing.TB, engine *sqlengine.Engine, borrowID int64) *time.Time {
	t.Helper()

	var returnDate *time.Time

	found, err := engine.QueryOne(
		context.Background(),
		engine.Builder().From(sqlengine.TableBorrowing).Select("return_date").Where(goqu.C("borrow_id").Eq(borrowID)),
		func(row sqlengine.Row) error { return row.Scan(&returnDate) },
	)
	require.NoError(t, err, "error in reading return date")
	require.True(t, found, "borrowing %d not found", borrowID)

	return returnDate
}

// LoadBorrowing reads a borrowing record without the joined member name and book title.
func LoadBorrowing(t testing.TB, engine *sqlengine.Engine, borrowID int64) core.BorrowingRecord {
	t.Helper()

	var record core.BorrowingRecord

	found, err := engine.QueryOne(
		context.Background(),
		engine.Builder().From(sqlengine.TableBorrowing).
			Select("borrow_id", "member_id", "book_id", "borrow_date", "due_date", "return_date").
			Where(goqu.C("borrow_id").Eq(borrowID)),
		func(row sqlengine.Row) error {
			return row.Scan(
				&record.BorrowID,
				&record.MemberID,
				&record.BookID,
				&record.BorrowDate,
				&record.DueDate,
				&record.ReturnDate,
			)
		},
	)
	require.NoError(t, err, "error in reading borrowing")
	require.True(t, found, "borrowing %d not found", borrowID)

	return record
}
