package listbooks

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/AntonStoeckl/librarydesk/circulation/shared/core"
	"github.com/AntonStoeckl/librarydesk/librarystore/sqlengine"
)

// Database defines the interface needed by the QueryHandler.
type Database interface {
	Builder() goqu.DialectWrapper
	QueryAll(ctx context.Context, stmt sqlengine.Statement, scan sqlengine.ScanFunc) (int, error)
}

// Books is the result of the query, ordered by title.
type Books struct {
	Books []core.Book
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

// Handle lists the matching books.
func (h QueryHandler) Handle(ctx context.Context, query Query) (Books, error) {
	var conditions []exp.Expression

	if query.SearchTerm != "" {
		pattern := "%" + query.SearchTerm + "%"
		conditions = append(conditions, goqu.Or(
			goqu.C("title").ILike(pattern),
			goqu.C("author").ILike(pattern),
		))
	}

	if query.MinCopies > 0 {
		conditions = append(conditions, goqu.C("available_copies").Gte(query.MinCopies))
	}

	stmt := h.db.Builder().From(sqlengine.TableBooks).
		Select(
			"book_id", "title", "author", "published_year", "available_copies",
			goqu.COALESCE(goqu.C("genre"), ""),
			goqu.COALESCE(goqu.C("isbn"), ""),
			goqu.COALESCE(goqu.C("description"), ""),
			"created_at", "updated_at",
		).
		Where(conditions...).
		Order(goqu.C("title").Asc(), goqu.C("book_id").Asc())

	books := make([]core.Book, 0)

	_, err := h.db.QueryAll(ctx, stmt, func(row sqlengine.Row) error {
		var book core.Book
		if err := row.Scan(
			&book.BookID,
			&book.Title,
			&book.Author,
			&book.PublishedYear,
			&book.AvailableCopies,
			&book.Genre,
			&book.ISBN,
			&book.Description,
			&book.CreatedAt,
			&book.UpdatedAt,
		); err != nil {
			return err
		}

		books = append(books, book)

		return nil
	})
	if err != nil {
		return Books{}, err
	}

	return Books{Books: books, Count: len(books)}, nil
}
