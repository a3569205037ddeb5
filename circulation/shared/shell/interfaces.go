package shell

import (
	"context"
)

// Command represents the contract for all command types of the circulation desk.
// Each command carries the input of one write operation (borrow, return, add book, add member).
// The CommandType method enables polymorphic handling and observability instrumentation.
type Command interface {
	CommandType() string
}

// Query represents the contract for all query types of the circulation desk.
// The QueryType method enables polymorphic handling and observability instrumentation.
type Query interface {
	QueryType() string
}

// CoreCommandHandler defines the contract for components that process commands with pure business logic.
// Handlers check the preconditions and write inside one transaction.
// Implementations should focus purely on business logic without observability concerns.
// This interface is designed to be wrapped with observability decorators.
type CoreCommandHandler[C Command] interface {
	Handle(ctx context.Context, command C) (HandlerResult, error)
}

// CoreQueryHandler defines the contract for components that answer queries.
// The generic parameters Q and R ensure type safety between queries and their results.
type CoreQueryHandler[Q Query, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}
