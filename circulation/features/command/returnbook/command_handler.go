package returnbook

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/AntonStoeckl/librarydesk/circulation/shared/core"
	"github.com/AntonStoeckl/librarydesk/circulation/shared/shell"
	"github.com/AntonStoeckl/librarydesk/librarystore/sqlengine"
)

// Database defines the interface needed by the CommandHandler.
type Database interface {
	InTransaction(ctx context.Context, fn sqlengine.TxFunc) error
}

// CommandHandler runs the return workflow in one transaction.
// External wrappers handle all observability concerns.
type CommandHandler struct {
	db Database
}

// NewCommandHandler creates a new CommandHandler.
func NewCommandHandler(db Database) CommandHandler {
	return CommandHandler{db: db}
}

// Handle closes the borrowing record and puts the copy back.
// The returned HandlerResult carries the id of the borrowing record.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult, error) {
	var result shell.HandlerResult

	err := h.db.InTransaction(ctx, func(ctx context.Context, tx *sqlengine.Tx) error {
		bookID, err := loadOpenBorrowing(ctx, tx, command.BorrowID)
		if err != nil {
			return err
		}

		if err := closeBorrowing(ctx, tx, command.BorrowID); err != nil {
			return err
		}

		if err := putCopyBack(ctx, tx, bookID); err != nil {
			return err
		}

		result = shell.NewSuccessResult(command.BorrowID, tx.Writes())

		return nil
	})

	if err != nil {
		return shell.HandlerResult{}, err
	}

	return result, nil
}

func loadOpenBorrowing(ctx context.Context, tx *sqlengine.Tx, borrowID int64) (int64, error) {
	query := tx.Builder().From(sqlengine.TableBorrowing).
		Select("book_id", "return_date").
		Where(goqu.C("borrow_id").Eq(borrowID))

	if tx.SupportsRowLocks() {
		query = query.ForUpdate(exp.Wait)
	}

	var (
		bookID     int64
		returnDate *time.Time
	)

	found, err := tx.QueryOne(ctx, query, func(row sqlengine.Row) error {
		return row.Scan(&bookID, &returnDate)
	})
	if err != nil {
		return 0, err
	}

	if !found {
		return 0, fmt.Errorf("%w: %d", core.ErrBorrowingNotFound, borrowID)
	}

	if returnDate != nil {
		return 0, core.ErrAlreadyReturned
	}

	return bookID, nil
}

func closeBorrowing(ctx context.Context, tx *sqlengine.Tx, borrowID int64) error {
	now := tx.Now()

	rowsAffected, err := tx.Exec(
		ctx,
		tx.Builder().Update(sqlengine.TableBorrowing).
			Set(goqu.Record{
				"return_date": core.ToDate(now),
				"updated_at":  now,
			}).
			Where(
				goqu.C("borrow_id").Eq(borrowID),
				goqu.C("return_date").IsNull(),
			),
	)
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return core.ErrAlreadyReturned
	}

	return nil
}

func putCopyBack(ctx context.Context, tx *sqlengine.Tx, bookID int64) error {
	rowsAffected, err := tx.Exec(
		ctx,
		tx.Builder().Update(sqlengine.TableBooks).
			Set(goqu.Record{
				"available_copies": goqu.L("available_copies + 1"),
				"updated_at":       tx.Now(),
			}).
			Where(goqu.C("book_id").Eq(bookID)),
	)
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w: %d", core.ErrBookNotFound, bookID)
	}

	return nil
}
