package addbook

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"

	"github.com/AntonStoeckl/librarydesk/circulation/shared/core"
	"github.com/AntonStoeckl/librarydesk/circulation/shared/shell"
	"github.com/AntonStoeckl/librarydesk/librarystore/sqlengine"
)

// Database defines the interface needed by the CommandHandler.
type Database interface {
	InTransaction(ctx context.Context, fn sqlengine.TxFunc) error
}

// CommandHandler validates and inserts new books.
type CommandHandler struct {
	db Database
}

// NewCommandHandler creates a new CommandHandler.
func NewCommandHandler(db Database) CommandHandler {
	return CommandHandler{db: db}
}

// Handle adds the book. The returned HandlerResult carries the id of the new book.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult, error) {
	var result shell.HandlerResult

	err := h.db.InTransaction(ctx, func(ctx context.Context, tx *sqlengine.Tx) error {
		now := tx.Now()
		book := command.Book

		if err := book.Validate(now); err != nil {
			return err
		}

		var existing int64

		_, err := tx.QueryOne(
			ctx,
			tx.Builder().From(sqlengine.TableBooks).
				Select(goqu.COUNT(goqu.Star())).
				Where(goqu.C("title").Eq(book.Title), goqu.C("author").Eq(book.Author)),
			func(row sqlengine.Row) error {
				return row.Scan(&existing)
			},
		)
		if err != nil {
			return err
		}

		if existing > 0 {
			return core.ErrDuplicateBook
		}

		bookID, err := tx.Insert(
			ctx,
			tx.Builder().Insert(sqlengine.TableBooks).Rows(goqu.Record{
				"title":            book.Title,
				"author":           book.Author,
				"published_year":   book.PublishedYear,
				"available_copies": book.Copies,
				"genre":            nullable(book.Genre),
				"isbn":             nullable(book.ISBN),
				"description":      nullable(book.Description),
				"created_at":       now,
				"updated_at":       now,
			}),
			"book_id",
		)
		if err != nil {
			// a concurrent insert of the same title and author, or an ISBN that is already taken
			if sqlengine.IsConstraintViolation(err) {
				return errors.Join(core.ErrDuplicateBook, err)
			}

			return err
		}

		result = shell.NewSuccessResult(bookID, tx.Writes())

		return nil
	})

	if err != nil {
		return shell.HandlerResult{}, err
	}

	return result, nil
}

// nullable stores empty optional fields as NULL, so the unique ISBN index ignores them.
func nullable(value string) any {
	if value == "" {
		return nil
	}

	return value
}
