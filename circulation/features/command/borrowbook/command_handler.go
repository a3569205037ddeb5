package borrowbook

import (
	"context"
	"errors"
	"fmt"

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

// CommandHandler runs the borrow workflow in one transaction.
// External wrappers handle all observability concerns.
type CommandHandler struct {
	db             Database
	loanPeriodDays int
}

// Option configures a CommandHandler.
type Option func(*CommandHandler)

// WithLoanPeriodDays sets the due date of new loans to the borrow date plus days.
// With 0 (the default) loans have no due date and never become overdue.
func WithLoanPeriodDays(days int) Option {
	return func(h *CommandHandler) {
		if days > 0 {
			h.loanPeriodDays = days
		}
	}
}

// NewCommandHandler creates a new CommandHandler with optional configuration.
func NewCommandHandler(db Database, opts ...Option) CommandHandler {
	handler := CommandHandler{db: db}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle lends one copy of the book to the member.
// The returned HandlerResult carries the id of the new borrowing record.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult, error) {
	var result shell.HandlerResult

	err := h.db.InTransaction(ctx, func(ctx context.Context, tx *sqlengine.Tx) error {
		if err := h.checkPreconditions(ctx, tx, command); err != nil {
			return err
		}

		borrowID, err := h.insertBorrowing(ctx, tx, command)
		if err != nil {
			return err
		}

		if err := takeCopy(ctx, tx, command.BookID); err != nil {
			return err
		}

		result = shell.NewSuccessResult(borrowID, tx.Writes())

		return nil
	})

	if err != nil {
		return shell.HandlerResult{}, err
	}

	return result, nil
}

func (h CommandHandler) checkPreconditions(ctx context.Context, tx *sqlengine.Tx, command Command) error {
	memberFound, err := tx.QueryOne(
		ctx,
		tx.Builder().From(sqlengine.TableMembers).
			Select("member_id").
			Where(goqu.C("member_id").Eq(command.MemberID)),
		func(row sqlengine.Row) error {
			var id int64
			return row.Scan(&id)
		},
	)
	if err != nil {
		return err
	}

	if !memberFound {
		return fmt.Errorf("%w: %d", core.ErrMemberNotFound, command.MemberID)
	}

	bookQuery := tx.Builder().From(sqlengine.TableBooks).
		Select("available_copies").
		Where(goqu.C("book_id").Eq(command.BookID))

	if tx.SupportsRowLocks() {
		bookQuery = bookQuery.ForUpdate(exp.Wait)
	}

	var availableCopies int

	bookFound, err := tx.QueryOne(ctx, bookQuery, func(row sqlengine.Row) error {
		return row.Scan(&availableCopies)
	})
	if err != nil {
		return err
	}

	if !bookFound {
		return fmt.Errorf("%w: %d", core.ErrBookNotFound, command.BookID)
	}

	if availableCopies < 1 {
		return core.ErrNoCopiesAvailable
	}

	var openLoans int64

	_, err = tx.QueryOne(
		ctx,
		tx.Builder().From(sqlengine.TableBorrowing).
			Select(goqu.COUNT(goqu.Star())).
			Where(
				goqu.C("member_id").Eq(command.MemberID),
				goqu.C("book_id").Eq(command.BookID),
				goqu.C("return_date").IsNull(),
			),
		func(row sqlengine.Row) error {
			return row.Scan(&openLoans)
		},
	)
	if err != nil {
		return err
	}

	if openLoans > 0 {
		return core.ErrAlreadyBorrowed
	}

	return nil
}

func (h CommandHandler) insertBorrowing(ctx context.Context, tx *sqlengine.Tx, command Command) (int64, error) {
	now := tx.Now()
	today := core.ToDate(now)

	record := goqu.Record{
		"member_id":   command.MemberID,
		"book_id":     command.BookID,
		"borrow_date": today,
		"created_at":  now,
		"updated_at":  now,
	}

	if h.loanPeriodDays > 0 {
		record["due_date"] = today.AddDate(0, 0, h.loanPeriodDays)
	}

	borrowID, err := tx.Insert(ctx, tx.Builder().Insert(sqlengine.TableBorrowing).Rows(record), "borrow_id")
	if err != nil {
		// the partial unique index on open loans catches a concurrent borrow of the same book
		if sqlengine.IsConstraintViolation(err) {
			return 0, errors.Join(core.ErrAlreadyBorrowed, err)
		}

		return 0, err
	}

	return borrowID, nil
}

func takeCopy(ctx context.Context, tx *sqlengine.Tx, bookID int64) error {
	rowsAffected, err := tx.Exec(
		ctx,
		tx.Builder().Update(sqlengine.TableBooks).
			Set(goqu.Record{
				"available_copies": goqu.L("available_copies - 1"),
				"updated_at":       tx.Now(),
			}).
			Where(
				goqu.C("book_id").Eq(bookID),
				goqu.C("available_copies").Gt(0),
			),
	)
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return core.ErrNoCopiesAvailable
	}

	return nil
}
