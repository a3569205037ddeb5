package listmembers

import (
	"strings"
)

const (
	queryType = "ListMembers"
)

// Query represents the intent to list members.
type Query struct {
	SearchTerm string
}

// QueryType returns the type identifier for this query, used for observability and routing.
func (q Query) QueryType() string {
	return queryType
}

// BuildQuery creates a new Query. An empty search term matches every member.
func BuildQuery(searchTerm string) Query {
	return Query{SearchTerm: strings.TrimSpace(searchTerm)}
}
