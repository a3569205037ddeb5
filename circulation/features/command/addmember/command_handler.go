package addmember

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

// CommandHandler validates and registers new members.
type CommandHandler struct {
	db Database
}

// NewCommandHandler creates a new CommandHandler.
func NewCommandHandler(db Database) CommandHandler {
	return CommandHandler{db: db}
}

// Handle registers the member. The returned HandlerResult carries the id of the new member.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult, error) {
	member := command.Member

	if err := member.Validate(); err != nil {
		return shell.HandlerResult{}, err
	}

	var result shell.HandlerResult

	err := h.db.InTransaction(ctx, func(ctx context.Context, tx *sqlengine.Tx) error {
		now := tx.Now()

		memberID, err := tx.Insert(
			ctx,
			tx.Builder().Insert(sqlengine.TableMembers).Rows(goqu.Record{
				"name":         member.Name,
				"email":        member.Email,
				"phone_number": nullable(member.PhoneNumber),
				"address":      nullable(member.Address),
				"join_date":    core.ToDate(now),
				"status":       string(core.MemberActive),
				"created_at":   now,
				"updated_at":   now,
			}),
			"member_id",
		)
		if err != nil {
			if sqlengine.IsConstraintViolation(err) {
				return errors.Join(core.ErrDuplicateEmail, err)
			}

			return err
		}

		result = shell.NewSuccessResult(memberID, tx.Writes())

		return nil
	})

	if err != nil {
		return shell.HandlerResult{}, err
	}

	return result, nil
}

func nullable(value string) any {
	if value == "" {
		return nil
	}

	return value
}
