package listmembers

import (
	"context"

	"github.com/doug-martin/goqu/v9"

	"github.com/AntonStoeckl/librarydesk/circulation/shared/core"
	"github.com/AntonStoeckl/librarydesk/librarystore/sqlengine"
)

// Database defines the interface needed by the QueryHandler.
type Database interface {
	Builder() goqu.DialectWrapper
	QueryAll(ctx context.Context, stmt sqlengine.Statement, scan sqlengine.ScanFunc) (int, error)
}

// Members is the result of the query, ordered by name.
type Members struct {
	Members []core.Member
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

// Handle lists the matching members.
func (h QueryHandler) Handle(ctx context.Context, query Query) (Members, error) {
	stmt := h.db.Builder().From(sqlengine.TableMembers).
		Select(
			"member_id", "name", "email",
			goqu.COALESCE(goqu.C("phone_number"), ""),
			goqu.COALESCE(goqu.C("address"), ""),
			"join_date", "status", "created_at", "updated_at",
		).
		Order(goqu.C("name").Asc(), goqu.C("member_id").Asc())

	if query.SearchTerm != "" {
		pattern := "%" + query.SearchTerm + "%"
		stmt = stmt.Where(goqu.Or(
			goqu.C("name").ILike(pattern),
			goqu.C("email").ILike(pattern),
		))
	}

	members := make([]core.Member, 0)

	_, err := h.db.QueryAll(ctx, stmt, func(row sqlengine.Row) error {
		var (
			member core.Member
			status string
		)

		if err := row.Scan(
			&member.MemberID,
			&member.Name,
			&member.Email,
			&member.PhoneNumber,
			&member.Address,
			&member.JoinDate,
			&status,
			&member.CreatedAt,
			&member.UpdatedAt,
		); err != nil {
			return err
		}

		member.Status = core.MemberStatus(status)
		members = append(members, member)

		return nil
	})
	if err != nil {
		return Members{}, err
	}

	return Members{Members: members, Count: len(members)}, nil
}
