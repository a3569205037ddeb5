package dashboardstats

import (
	"context"

	"github.com/AntonStoeckl/librarydesk/librarystore/sqlengine"
)

// statsQuery works unchanged on PostgreSQL, MySQL and SQLite.
// SUM over an empty table is NULL, hence the COALESCE.
const statsQuery = `SELECT
	(SELECT COUNT(*) FROM books),
	(SELECT COUNT(*) FROM members),
	(SELECT COUNT(*) FROM borrowing WHERE return_date IS NULL),
	(SELECT COALESCE(SUM(available_copies), 0) FROM books)`

// Database defines the interface needed by the QueryHandler.
type Database interface {
	QueryOne(ctx context.Context, stmt sqlengine.Statement, scan sqlengine.ScanFunc) (bool, error)
}

// Stats holds the dashboard figures.
type Stats struct {
	TotalBooks       int64
	TotalMembers     int64
	ActiveBorrowings int64
	AvailableCopies  int64
}

// QueryHandler answers the query.
type QueryHandler struct {
	db Database
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(db Database) QueryHandler {
	return QueryHandler{db: db}
}

// Handle reads the dashboard figures.
func (h QueryHandler) Handle(ctx context.Context, _ Query) (Stats, error) {
	var stats Stats

	_, err := h.db.QueryOne(ctx, sqlengine.Raw(statsQuery), func(row sqlengine.Row) error {
		return row.Scan(&stats.TotalBooks, &stats.TotalMembers, &stats.ActiveBorrowings, &stats.AvailableCopies)
	})
	if err != nil {
		return Stats{}, err
	}

	return stats, nil
}
