package listbooks

import (
	"strings"
)

const (
	queryType = "ListBooks"
)

// Query represents the intent to list the catalog.
type Query struct {
	SearchTerm string
	MinCopies  int
}

// QueryType returns the type identifier for this query, used for observability and routing.
func (q Query) QueryType() string {
	return queryType
}

// BuildQuery creates a new Query. An empty search term matches every book.
func BuildQuery(searchTerm string, minCopies int) Query {
	return Query{
		SearchTerm: strings.TrimSpace(searchTerm),
		MinCopies:  max(minCopies, 0),
	}
}

// BuildAvailableQuery creates a Query for books with at least one copy on the shelf.
func BuildAvailableQuery() Query {
	return Query{MinCopies: 1}
}
