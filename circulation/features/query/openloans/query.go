package openloans

const (
	queryType = "ListOpenLoans"
)

// Query represents the intent to list the books that are still out.
type Query struct{}

// QueryType returns the type identifier for this query, used for observability and routing.
func (q Query) QueryType() string {
	return queryType
}

// BuildQuery creates a new Query.
func BuildQuery() Query {
	return Query{}
}
