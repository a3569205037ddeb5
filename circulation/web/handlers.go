package web

import (
	"context"

	"github.com/AntonStoeckl/librarydesk/circulation/features/command/addbook"
	"github.com/AntonStoeckl/librarydesk/circulation/features/command/addmember"
	"github.com/AntonStoeckl/librarydesk/circulation/features/command/borrowbook"
	"github.com/AntonStoeckl/librarydesk/circulation/features/command/returnbook"
	"github.com/AntonStoeckl/librarydesk/circulation/features/query/dashboardstats"
	"github.com/AntonStoeckl/librarydesk/circulation/features/query/listbooks"
	"github.com/AntonStoeckl/librarydesk/circulation/features/query/listborrowings"
	"github.com/AntonStoeckl/librarydesk/circulation/features/query/listmembers"
	"github.com/AntonStoeckl/librarydesk/circulation/features/query/openloans"
	"github.com/AntonStoeckl/librarydesk/circulation/shared/shell"
	"github.com/AntonStoeckl/librarydesk/circulation/shared/shell/observable"
	"github.com/AntonStoeckl/librarydesk/librarystore/sqlengine"
)

// HealthChecker reports whether the database is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) (sqlengine.ServerInfo, error)
}

// Handlers are the operations the web layer dispatches to.
type Handlers struct {
	BorrowBook     shell.CoreCommandHandler[borrowbook.Command]
	ReturnBook     shell.CoreCommandHandler[returnbook.Command]
	AddBook        shell.CoreCommandHandler[addbook.Command]
	AddMember      shell.CoreCommandHandler[addmember.Command]
	ListBooks      shell.CoreQueryHandler[listbooks.Query, listbooks.Books]
	ListMembers    shell.CoreQueryHandler[listmembers.Query, listmembers.Members]
	ListBorrowings shell.CoreQueryHandler[listborrowings.Query, listborrowings.Borrowings]
	OpenLoans      shell.CoreQueryHandler[openloans.Query, openloans.Loans]
	DashboardStats shell.CoreQueryHandler[dashboardstats.Query, dashboardstats.Stats]
	Health         HealthChecker
}

// Observability selects what the handlers are instrumented with. Nil fields are skipped.
type Observability struct {
	Metrics          shell.MetricsCollector
	Tracing          shell.TracingCollector
	ContextualLogger shell.ContextualLogger
}

// NewHandlers builds the handlers of all feature slices on top of the engine
// and wraps each of them with the observable wrappers.
func NewHandlers(engine *sqlengine.Engine, loanPeriodDays int, obs Observability) (Handlers, error) {
	var (
		handlers Handlers
		err      error
	)

	if handlers.BorrowBook, err = wrapCommand[borrowbook.Command](
		borrowbook.NewCommandHandler(engine, borrowbook.WithLoanPeriodDays(loanPeriodDays)), obs,
	); err != nil {
		return Handlers{}, err
	}

	if handlers.ReturnBook, err = wrapCommand[returnbook.Command](returnbook.NewCommandHandler(engine), obs); err != nil {
		return Handlers{}, err
	}

	if handlers.AddBook, err = wrapCommand[addbook.Command](addbook.NewCommandHandler(engine), obs); err != nil {
		return Handlers{}, err
	}

	if handlers.AddMember, err = wrapCommand[addmember.Command](addmember.NewCommandHandler(engine), obs); err != nil {
		return Handlers{}, err
	}

	if handlers.ListBooks, err = wrapQuery[listbooks.Query, listbooks.Books](
		listbooks.NewQueryHandler(engine), obs,
	); err != nil {
		return Handlers{}, err
	}

	if handlers.ListMembers, err = wrapQuery[listmembers.Query, listmembers.Members](
		listmembers.NewQueryHandler(engine), obs,
	); err != nil {
		return Handlers{}, err
	}

	if handlers.ListBorrowings, err = wrapQuery[listborrowings.Query, listborrowings.Borrowings](
		listborrowings.NewQueryHandler(engine), obs,
	); err != nil {
		return Handlers{}, err
	}

	if handlers.OpenLoans, err = wrapQuery[openloans.Query, openloans.Loans](
		openloans.NewQueryHandler(engine), obs,
	); err != nil {
		return Handlers{}, err
	}

	if handlers.DashboardStats, err = wrapQuery[dashboardstats.Query, dashboardstats.Stats](
		dashboardstats.NewQueryHandler(engine), obs,
	); err != nil {
		return Handlers{}, err
	}

	handlers.Health = engine

	return handlers, nil
}

func wrapCommand[C shell.Command](handler shell.CoreCommandHandler[C], obs Observability) (shell.CoreCommandHandler[C], error) {
	var opts []observable.CommandOption[C]

	if obs.Metrics != nil {
		opts = append(opts, observable.WithCommandMetrics[C](obs.Metrics))
	}

	if obs.Tracing != nil {
		opts = append(opts, observable.WithCommandTracing[C](obs.Tracing))
	}

	if obs.ContextualLogger != nil {
		opts = append(opts, observable.WithCommandContextualLogging[C](obs.ContextualLogger))
	}

	return observable.NewCommandWrapper[C](handler, opts...)
}

func wrapQuery[Q shell.Query, R any](handler shell.CoreQueryHandler[Q, R], obs Observability) (shell.CoreQueryHandler[Q, R], error) {
	var opts []observable.QueryOption[Q, R]

	if obs.Metrics != nil {
		opts = append(opts, observable.WithQueryMetrics[Q, R](obs.Metrics))
	}

	if obs.Tracing != nil {
		opts = append(opts, observable.WithQueryTracing[Q, R](obs.Tracing))
	}

	if obs.ContextualLogger != nil {
		opts = append(opts, observable.WithQueryContextualLogging[Q, R](obs.ContextualLogger))
	}

	return observable.NewQueryWrapper[Q, R](handler, opts...)
}
