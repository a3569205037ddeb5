package listborrowings

import (
	"strings"

	"github.com/AntonStoeckl/librarydesk/circulation/shared/core"
)

const (
	queryType = "ListBorrowingRecords"
)

// RecentActivityLimit is the number of records on the dashboard.
const RecentActivityLimit = 10

// Query represents the intent to list borrowing records.
type Query struct {
	Status     core.StatusFilter
	MemberName string
	Limit      int
}

// QueryType returns the type identifier for this query, used for observability and routing.
func (q Query) QueryType() string {
	return queryType
}

// BuildQuery creates a new Query. The status is parsed case-insensitively, empty means all records.
// A limit of 0 lists every matching record.
func BuildQuery(status string, memberName string, limit int) (Query, error) {
	filter, err := core.ParseStatusFilter(status)
	if err != nil {
		return Query{}, err
	}

	return Query{
		Status:     filter,
		MemberName: strings.TrimSpace(memberName),
		Limit:      max(limit, 0),
	}, nil
}

// BuildRecentActivityQuery creates a Query for the newest records of all members.
func BuildRecentActivityQuery() Query {
	return Query{Status: core.FilterAll, Limit: RecentActivityLimit}
}
